package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed static
var content embed.FS

// FS 回傳前端頁面；dir 非空時改用磁碟上的目錄，方便開發時直接修改
func FS(dir string) (fs.FS, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(content, "static")
}
