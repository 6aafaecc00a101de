package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 登出黑名單與健康檢查使用的 GET/SET 子集合 (Redis 或記憶體實作)
// ttl <= 0 表示不設過期
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
	Close() error
}

// FakeCache 測試用：Err 非 nil 時每個操作都失敗，否則行為同記憶體快取
type FakeCache struct {
	Err    error
	Keys   []string
	Closed bool

	mem *Memory
}

func (f *FakeCache) memory() *Memory {
	if f.mem == nil {
		f.mem = NewMemory()
	}
	return f.mem
}

func (f *FakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.Err != nil {
		return redis.NewStringResult("", f.Err)
	}
	return f.memory().Get(ctx, key)
}

// Set 成功時記錄 key，供測試檢查寫入順序
func (f *FakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.Err != nil {
		return redis.NewStatusResult("", f.Err)
	}
	f.Keys = append(f.Keys, key)
	return f.memory().Set(ctx, key, value, ttl)
}

func (f *FakeCache) Close() error {
	f.Closed = true
	return f.Err
}
