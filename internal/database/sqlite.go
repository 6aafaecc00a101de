package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryPath 以記憶體資料庫開啟 (測試用)
const MemoryPath = ":memory:"

var sqlOpenDB = sql.Open

// NewSQLite 開啟 SQLite 檔案並檢查連線
// 啟用 foreign_keys 與 busy_timeout；檔案資料庫另外使用 WAL
func NewSQLite(ctx context.Context, path string) (*sql.DB, error) {
	memory := path == MemoryPath
	if !memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sqlOpenDB("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// 記憶體資料庫每條連線各自獨立，只能保留一條
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// IsUniqueViolation 判斷是否為 UNIQUE 約束錯誤
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const timeLayout = "2006-01-02 15:04:05"

var timeLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatTime 以 SQLite CURRENT_TIMESTAMP 相同格式 (UTC) 輸出
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime 解析 SQLite 中常見的時間字串
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", s)
}

type timeScanner struct{ dst *time.Time }

func (s timeScanner) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*s.dst = time.Time{}
	case time.Time:
		*s.dst = x.UTC()
	case string:
		t, err := ParseTime(x)
		if err != nil {
			return err
		}
		*s.dst = t
	case []byte:
		t, err := ParseTime(string(x))
		if err != nil {
			return err
		}
		*s.dst = t
	default:
		return fmt.Errorf("cannot scan %T into time", v)
	}
	return nil
}

type nullTimeScanner struct{ dst **time.Time }

func (s nullTimeScanner) Scan(v any) error {
	if v == nil {
		*s.dst = nil
		return nil
	}
	var t time.Time
	if err := (timeScanner{dst: &t}).Scan(v); err != nil {
		return err
	}
	*s.dst = &t
	return nil
}

// ScanTime 讓 TEXT 或 time.Time 欄位都能掃描到 time.Time
func ScanTime(dst *time.Time) sql.Scanner { return timeScanner{dst: dst} }

// ScanNullTime 同 ScanTime，NULL 對應 nil
func ScanNullTime(dst **time.Time) sql.Scanner { return nullTimeScanner{dst: dst} }
