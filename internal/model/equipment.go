// File: internal/model/equipment.go
package model

import (
	"slices"
	"time"
)

// 固定的實驗室代碼
var Labs = []string{"EC3625", "EC3630", "EC3760", "EC3765", "OU107", "OU106"}

// 設備狀態詞彙
const (
	StatusActive          = "Active / In Use"
	StatusStored          = "Stored / In Storage"
	StatusSurplus         = "Surplus"
	StatusObsolete        = "Obsolete / Outdated"
	StatusBroken          = "Broken / Non-Functional"
	StatusTroubleshooting = "Troubleshooting"
	StatusMaintenance     = "Under Maintenance"
	StatusToBeDisposed    = "To be Disposed"
	StatusNotSpecified    = "Not specified"
)

var EquipmentStatuses = []string{
	StatusActive,
	StatusStored,
	StatusSurplus,
	StatusObsolete,
	StatusBroken,
	StatusTroubleshooting,
	StatusMaintenance,
	StatusToBeDisposed,
	StatusNotSpecified,
}

// UploadsPrefix 圖片路徑前綴，存於 image 欄位
const UploadsPrefix = "/uploads/"

func IsLab(code string) bool { return slices.Contains(Labs, code) }

func IsEquipmentStatus(s string) bool { return slices.Contains(EquipmentStatuses, s) }

// Equipment 一筆庫存設備；指標欄位為選填 (nil 表示未提供)
type Equipment struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Category      string    `db:"category" json:"category"`
	Model         *string   `db:"model" json:"model"`
	Lab           string    `db:"lab" json:"lab"`
	BuyingDate    *string   `db:"buying_date" json:"buyingDate"`
	SerialNumber  string    `db:"serial_number" json:"serialNumber"`
	FIUID         *string   `db:"fiu_id" json:"fiuId"`
	Quantity      int       `db:"quantity" json:"quantity"`
	Price         *float64  `db:"price" json:"price"`
	Status        string    `db:"status" json:"status"`
	Notes         string    `db:"notes" json:"notes"`
	Image         *string   `db:"image" json:"image"`
	ManualLink    *string   `db:"manual_link" json:"manualLink"`
	CreatedBy     *int64    `db:"created_by" json:"createdBy"`
	UpdatedBy     *int64    `db:"updated_by" json:"updatedBy"`
	CreatedByName *string   `db:"-" json:"createdByName,omitempty"`
	UpdatedByName *string   `db:"-" json:"updatedByName,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// EquipmentFilter 列表查詢條件；Labs 為 nil 表示不限制實驗室
type EquipmentFilter struct {
	Labs   []string
	Lab    string
	Status string
	Search string
}

// StatusCount 報表統計列
type StatusCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}
