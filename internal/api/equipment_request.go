package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"lab-inventory/internal/inventory"
)

// Flag 接受 JSON 布林值或表單字串 "true"
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return f.UnmarshalParam(s)
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

func (f *Flag) UnmarshalParam(param string) error {
	*f = Flag(strings.EqualFold(strings.TrimSpace(param), "true"))
	return nil
}

// EquipmentRequest 新增與更新設備的表單 (multipart 或 JSON)
// swagger:model api.EquipmentRequest
type EquipmentRequest struct {
	Name         string           `json:"name" form:"name" validate:"required" example:"Oscilloscope"`
	Category     string           `json:"category" form:"category" validate:"required" example:"Tektronix"`
	Model        inventory.Text   `json:"model" form:"model" swaggertype:"string" example:"TBS1052B"`
	Lab          string           `json:"lab" form:"lab" validate:"required,lab" example:"EC3625"`
	BuyingDate   string           `json:"buyingDate" form:"buyingDate" example:"2021-08-15"`
	SerialNumber inventory.Text   `json:"serialNumber" form:"serialNumber" validate:"required" swaggertype:"string" example:"C012345"`
	FIUID        inventory.Text   `json:"fiuId" form:"fiuId" swaggertype:"string" example:"FIU-00123"`
	Quantity     inventory.Number `json:"quantity" form:"quantity" validate:"required" swaggertype:"string" example:"1"`
	Price        inventory.Number `json:"price" form:"price" swaggertype:"string" example:"499.99"`
	Status       string           `json:"status" form:"status" validate:"required,equipmentstatus" example:"Active / In Use"`
	Notes        string           `json:"notes" form:"notes" example:"Calibrated 2024"`
	ManualLink   string           `json:"manualLink" form:"manualLink" validate:"omitempty,url" example:"https://example.com/manual.pdf"`
	KeepImage    Flag             `json:"keepImage" form:"keepImage" swaggertype:"boolean" example:"true"`
	CurrentImage string           `json:"currentImage" form:"currentImage" example:"/uploads/equipment-1700000000000-a.png"`
}

// MissingEquipmentFields 必填欄位缺漏時的訊息
const MissingEquipmentFields = "Missing required fields. Required: name, category, lab, serialNumber, quantity, status"

// Item 轉為匯入格式，沿用同一套欄位解析與檢查
func (r EquipmentRequest) Item() inventory.Item {
	return inventory.Item{
		Name:         r.Name,
		Category:     r.Category,
		Lab:          r.Lab,
		SerialNumber: r.SerialNumber,
		Quantity:     r.Quantity,
		Status:       r.Status,
		Model:        r.Model,
		FIUID:        r.FIUID,
		BuyingDate:   r.BuyingDate,
		Price:        r.Price,
		Notes:        r.Notes,
		ManualLink:   r.ManualLink,
	}
}

// swagger:model api.ImageRequest
type ImageRequest struct {
	Image string `json:"image" form:"image" example:"/uploads/equipment-1700000000000-a.png"`
}
