package store

import "errors"

var (
	// ErrNotFound 查無資料
	ErrNotFound = errors.New("not found")
	// ErrConflict 違反唯一約束 (email, panther id, serial number)
	ErrConflict = errors.New("conflict")
)

type rowScanner interface {
	Scan(dest ...any) error
}
