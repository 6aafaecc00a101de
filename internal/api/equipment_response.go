package api

import (
	"time"

	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
)

// EquipmentResponse 設備資料加上推算的使用年限
// swagger:model api.EquipmentResponse
type EquipmentResponse struct {
	model.Equipment
	Age string `json:"age" example:"2 years, 3 months"`
}

func NewEquipmentResponse(e model.Equipment, now time.Time) EquipmentResponse {
	return EquipmentResponse{Equipment: e, Age: service.FormatAge(e.BuyingDate, now)}
}

func NewEquipmentList(items []model.Equipment, now time.Time) []EquipmentResponse {
	out := make([]EquipmentResponse, 0, len(items))
	for _, e := range items {
		out = append(out, NewEquipmentResponse(e, now))
	}
	return out
}
