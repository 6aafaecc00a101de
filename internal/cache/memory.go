package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var memoryNow = time.Now

// sweepInterval 兩次清除過期項目之間的最短間隔
const sweepInterval = time.Minute

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory 未設定 REDIS_ADDR 時使用的行程內快取，語意與 Redis GET/SET 相同
type Memory struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}}
}

func (m *Memory) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	if !e.expiresAt.IsZero() && !memoryNow().Before(e.expiresAt) {
		delete(m.entries, key)
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(e.value, nil)
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	e := memoryEntry{value: fmt.Sprint(value)}
	if b, ok := value.([]byte); ok {
		e.value = string(b)
	}
	now := memoryNow()
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	// 撤銷的 token 多半不會再被讀取，寫入時順便清掉過期項目
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweep(now)
	}
	return redis.NewStatusResult("OK", nil)
}

// sweep 刪除所有已過期的項目，呼叫端需持有 mu
func (m *Memory) sweep(now time.Time) {
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.lastSweep = now
}

func (m *Memory) Close() error { return nil }
