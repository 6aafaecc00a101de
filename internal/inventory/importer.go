package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
	"lab-inventory/internal/store"
)

var (
	listSerialNumbers  = store.ListSerialNumbers
	createEquipment    = store.CreateEquipment
	deleteAllEquipment = store.DeleteAllEquipment
)

// ImportOptions 匯入設定
type ImportOptions struct {
	Clear     bool
	Style     SuffixStyle
	CreatedBy *int64
}

// Rename 重複序號的改名紀錄
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ImportResult 匯入統計
type ImportResult struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Cleared  int64    `json:"cleared"`
	Renamed  []Rename `json:"renamed"`
	Errors   []string `json:"errors"`
}

// Import 驗證後逐筆寫入；單筆失敗只記錄並略過，不回滾已寫入的資料
func Import(ctx context.Context, db database.DB, items []Item, opts ImportOptions, log *zap.Logger) (*ImportResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	equipment, err := ValidateItems(items)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Total: len(items), Renamed: []Rename{}, Errors: []string{}}
	if opts.Clear {
		n, err := deleteAllEquipment(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("clear equipment: %w", err)
		}
		res.Cleared = n
		log.Info("cleared existing equipment", zap.Int64("count", n))
	}

	existing, err := listSerialNumbers(ctx, db)
	if err != nil {
		return nil, err
	}
	style := opts.Style
	if style == "" {
		style = SuffixDup
	}
	resolver := NewSerialResolver(style, existing)

	for i, e := range equipment {
		original := e.SerialNumber
		e.SerialNumber = resolver.Resolve(original)
		if e.SerialNumber != original {
			res.Renamed = append(res.Renamed, Rename{From: original, To: e.SerialNumber})
			log.Warn("duplicate serial renamed", zap.String("from", original), zap.String("to", e.SerialNumber))
		}
		e.CreatedBy = opts.CreatedBy
		e.UpdatedBy = opts.CreatedBy

		if _, err := createEquipment(ctx, db, e); err != nil {
			resolver.Release(e.SerialNumber)
			res.Failed++
			msg := fmt.Sprintf("Item %d (%s): %v", i+1, e.Name, err)
			res.Errors = append(res.Errors, msg)
			log.Error("import row failed", zap.Int("item", i+1), zap.String("serial", e.SerialNumber), zap.Error(err))
			continue
		}
		res.Imported++
	}
	return res, nil
}

// Report 各狀態與實驗室的數量統計
type Report struct {
	Total    int                 `json:"total"`
	ByStatus []model.StatusCount `json:"byStatus"`
	ByLab    []model.StatusCount `json:"byLab"`
}

var (
	countEquipment         = store.CountEquipment
	countEquipmentByStatus = store.CountEquipmentByStatus
	countEquipmentByLab    = store.CountEquipmentByLab
)

func BuildReport(ctx context.Context, db database.DB) (*Report, error) {
	total, err := countEquipment(ctx, db)
	if err != nil {
		return nil, err
	}
	byStatus, err := countEquipmentByStatus(ctx, db)
	if err != nil {
		return nil, err
	}
	byLab, err := countEquipmentByLab(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Report{Total: total, ByStatus: byStatus, ByLab: byLab}, nil
}
