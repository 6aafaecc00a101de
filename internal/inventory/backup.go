package inventory

import (
	"archive/zip"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
	"lab-inventory/internal/store"
	"lab-inventory/internal/uploads"
)

const (
	backupPrefix  = "equipment_backup_"
	restorePrefix = "equipment_restore_"
	backupDesc    = "Complete equipment database backup with images - can be used with labctl import or restore"
)

var (
	listEquipment = store.ListEquipment
	timeNow       = time.Now
)

var ErrInvalidBackupName = errors.New("invalid backup name")

// Metadata 備份檔的摘要資訊
type Metadata struct {
	BackupDate   time.Time      `json:"backupDate"`
	TotalRecords int            `json:"totalRecords"`
	Labs         []string       `json:"labs"`
	StatusCounts map[string]int `json:"statusCounts"`
	ImageCount   int            `json:"imageCount"`
	ImagesCopied int            `json:"imagesCopied"`
	ImageErrors  int            `json:"imageErrors"`
	Description  string         `json:"description"`
}

// BackupResult 建立備份後的結果
type BackupResult struct {
	Name     string   `json:"name"`
	Path     string   `json:"-"`
	Size     int64    `json:"size"`
	Metadata Metadata `json:"metadata"`
	Errors   []string `json:"imageErrorDetails"`
}

// BackupFile 備份目錄中的檔案
type BackupFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Timestamp 與 ISO 時間相同但 ':' 與 '.' 改為 '-'，可作為檔名
func Timestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%03dZ", t.Format("2006-01-02T15-04-05"), t.Nanosecond()/int(time.Millisecond))
}

func buildMetadata(items []Item, now time.Time) Metadata {
	md := Metadata{
		BackupDate:   now.UTC(),
		TotalRecords: len(items),
		Labs:         []string{},
		StatusCounts: map[string]int{},
		Description:  backupDesc,
	}
	for _, it := range items {
		if !slices.Contains(md.Labs, it.Lab) {
			md.Labs = append(md.Labs, it.Lab)
		}
		md.StatusCounts[it.Status]++
		if it.Image != "" {
			md.ImageCount++
		}
	}
	slices.Sort(md.Labs)
	return md
}

// CreateBackup 將所有設備與其圖片打包成 equipment_backup_<ts>.zip
func CreateBackup(ctx context.Context, db database.DB, images *uploads.Store, backupDir string, log *zap.Logger) (*BackupResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	all, err := listEquipment(ctx, db, model.EquipmentFilter{})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b model.Equipment) int {
		return cmp.Or(cmp.Compare(a.Lab, b.Lab), cmp.Compare(a.Name, b.Name))
	})
	items := make([]Item, len(all))
	for i, e := range all {
		items[i] = ItemFromEquipment(e)
	}

	now := timeNow()
	ts := Timestamp(now)
	md := buildMetadata(items, now)

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	name := backupPrefix + ts + ".zip"
	path := filepath.Join(backupDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	res := &BackupResult{Name: name, Path: path, Errors: []string{}}
	if err := writeArchive(f, items, &md, images, ts, res); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	info, err := f.Stat()
	if err == nil {
		res.Size = info.Size()
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close archive: %w", err)
	}
	res.Metadata = md
	log.Info("backup created",
		zap.String("file", name),
		zap.Int("records", md.TotalRecords),
		zap.Int("images", md.ImagesCopied),
		zap.Int("image_errors", md.ImageErrors),
	)
	return res, nil
}

func writeArchive(w io.Writer, items []Item, md *Metadata, images *uploads.Store, ts string, res *BackupResult) error {
	zw := zip.NewWriter(w)

	// 先放圖片，metadata 才有正確的複製數量
	seen := map[string]bool{}
	for _, it := range items {
		if it.Image == "" || seen[it.Image] {
			continue
		}
		seen[it.Image] = true
		if err := copyImage(zw, images, it.Image); err != nil {
			md.ImageErrors++
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to copy %s: %v", it.Image, err))
			continue
		}
		md.ImagesCopied++
	}

	if err := writeJSON(zw, backupPrefix+ts+".json", Document{Metadata: *md, Equipment: items}); err != nil {
		return err
	}
	if err := writeJSON(zw, restorePrefix+ts+".json", items); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func copyImage(zw *zip.Writer, images *uploads.Store, publicPath string) error {
	name, err := uploads.FileName(publicPath)
	if err != nil {
		return err
	}
	src, err := images.Open(publicPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := zw.Create("uploads/" + name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func writeJSON(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func isBackupName(name string) bool {
	if name != filepath.Base(name) || !strings.HasPrefix(name, backupPrefix) {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".zip" || ext == ".json"
}

// ListBackups 列出備份目錄中的備份檔，最新的在前
func ListBackups(backupDir string) ([]BackupFile, error) {
	entries, err := os.ReadDir(backupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []BackupFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	files := []BackupFile{}
	for _, e := range entries {
		if e.IsDir() || !isBackupName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, BackupFile{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	slices.SortFunc(files, func(a, b BackupFile) int {
		return cmp.Or(b.ModTime.Compare(a.ModTime), cmp.Compare(b.Name, a.Name))
	})
	return files, nil
}

// BackupPath 驗證檔名後回傳完整路徑
func BackupPath(backupDir, name string) (string, error) {
	if !isBackupName(name) {
		return "", ErrInvalidBackupName
	}
	path := filepath.Join(backupDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
