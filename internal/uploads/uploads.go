// File: internal/uploads/uploads.go
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"lab-inventory/internal/model"
)

// MaxImageSize 單張圖片上限 10 MB
const MaxImageSize = 10 << 20

var (
	ErrNotImage       = errors.New("only image files are allowed")
	ErrTooLarge       = errors.New("image exceeds 10 MB")
	ErrOutsideUploads = errors.New("path is not under uploads")
)

var (
	timeNow = time.Now
	newName = uuid.NewString
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}

// IsImageName 副檔名決定 /uploads 回應的 Content-Type，只接受圖片格式
func IsImageName(name string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(name)))
}

// Store 管理上傳目錄中的設備圖片
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Image 圖片列表項目
type Image struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// FileName 由公開路徑 (/uploads/x.png) 取得檔名，不在 uploads 下則回傳錯誤
func FileName(publicPath string) (string, error) {
	if !strings.HasPrefix(publicPath, model.UploadsPrefix) {
		return "", ErrOutsideUploads
	}
	name := strings.TrimPrefix(publicPath, model.UploadsPrefix)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrOutsideUploads
	}
	return name, nil
}

func PublicPath(name string) string { return model.UploadsPrefix + name }

// SaveImage 儲存上傳的圖片，檔名為 equipment-<unix ms>-<uuid><ext>
func (s *Store) SaveImage(fh *multipart.FileHeader) (string, error) {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") || !IsImageName(fh.Filename) {
		return "", ErrNotImage
	}
	if fh.Size > MaxImageSize {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("equipment-%d-%s%s", timeNow().UnixMilli(), newName(), ext)
	if err := s.Save(name, io.LimitReader(src, MaxImageSize+1)); err != nil {
		return "", err
	}
	return PublicPath(name), nil
}

// Save 以指定檔名寫入 uploads 目錄 (還原備份時使用)
func (s *Store) Save(name string, r io.Reader) error {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return ErrOutsideUploads
	}
	if !IsImageName(name) {
		return ErrNotImage
	}
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxImageSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(dst.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Open 開啟公開路徑對應的檔案
func (s *Store) Open(publicPath string) (*os.File, error) {
	name, err := FileName(publicPath)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.dir, name))
}

// Remove 刪除圖片；不在 uploads 下的路徑略過，檔案不存在不算錯誤
func (s *Store) Remove(publicPath string) error {
	name, err := FileName(publicPath)
	if err != nil {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// ListImages 列出 uploads 內的圖片檔，最新的在前
func (s *Store) ListImages() ([]Image, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Image{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read uploads dir: %w", err)
	}

	images := []Image{}
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		images = append(images, Image{
			Name:    e.Name(),
			URL:     PublicPath(e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortFunc(images, func(a, b Image) int {
		return b.ModTime.Compare(a.ModTime)
	})
	return images, nil
}
