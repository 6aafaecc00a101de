package inventory

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"lab-inventory/internal/database"
	"lab-inventory/internal/uploads"
)

// RestoreOptions 還原設定
type RestoreOptions struct {
	Clear     bool
	CreatedBy *int64
}

// RestoreResult 還原結果
type RestoreResult struct {
	Format         string        `json:"format"`
	ImagesRestored int           `json:"imagesRestored"`
	ImageErrors    []string      `json:"imageErrors"`
	Import         *ImportResult `json:"import"`
}

var zipMagic = []byte("PK\x03\x04")

// Restore 接受 zip 備份、完整備份 JSON 或單純的設備陣列
// zip 內的圖片先寫回 uploads，再以匯入流程寫入資料 (序號重複時加 -DUP)
func Restore(ctx context.Context, db database.DB, data []byte, images *uploads.Store, opts RestoreOptions, log *zap.Logger) (*RestoreResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := &RestoreResult{ImageErrors: []string{}}

	var items []Item
	if bytes.HasPrefix(data, zipMagic) {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		items, err = itemsFromArchive(zr)
		if err != nil {
			return nil, err
		}
		res.Format = "zip"
		restoreImages(zr, images, res, log)
	} else {
		var (
			md  *Metadata
			err error
		)
		items, md, err = DecodeItems(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		res.Format = "array"
		if md != nil {
			res.Format = "backup"
			log.Info("restoring full backup",
				zap.Time("backup_date", md.BackupDate),
				zap.Int("records", md.TotalRecords),
			)
		}
	}

	imported, err := Import(ctx, db, items, ImportOptions{Clear: opts.Clear, Style: SuffixDup, CreatedBy: opts.CreatedBy}, log)
	if err != nil {
		return nil, err
	}
	res.Import = imported
	return res, nil
}

func itemsFromArchive(zr *zip.Reader) ([]Item, error) {
	var backupDoc *zip.File
	for _, f := range zr.File {
		base := path.Base(f.Name)
		if !strings.HasSuffix(base, ".json") {
			continue
		}
		if strings.HasPrefix(base, restorePrefix) {
			items, _, err := decodeZipEntry(f)
			return items, err
		}
		if strings.HasPrefix(base, backupPrefix) && backupDoc == nil {
			backupDoc = f
		}
	}
	if backupDoc == nil {
		return nil, fmt.Errorf("%w: no %s*.json file found in archive", ErrInvalidFormat, restorePrefix)
	}
	items, _, err := decodeZipEntry(backupDoc)
	return items, err
}

func decodeZipEntry(f *zip.File) ([]Item, *Metadata, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return DecodeItems(rc)
}

// restoreImages 複製 uploads/ 下的檔案；單張失敗只記錄
func restoreImages(zr *zip.Reader, images *uploads.Store, res *RestoreResult, log *zap.Logger) {
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dir, name := path.Split(f.Name)
		if path.Base(path.Clean(dir)) != "uploads" || name == "" {
			continue
		}
		if err := restoreImage(f, name, images); err != nil {
			res.ImageErrors = append(res.ImageErrors, fmt.Sprintf("Could not restore image %s: %v", name, err))
			log.Warn("image restore failed", zap.String("image", name), zap.Error(err))
			continue
		}
		res.ImagesRestored++
	}
}

func restoreImage(f *zip.File, name string, images *uploads.Store) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return images.Save(name, io.LimitReader(rc, uploads.MaxImageSize+1))
}
