package service

import (
	"slices"

	"lab-inventory/internal/model"
)

// LabAccess 描述使用者可見的實驗室範圍
type LabAccess struct {
	Role string
	Labs []string
}

func NewLabAccess(role string, labs []string) LabAccess {
	return LabAccess{Role: role, Labs: labs}
}

// Unrestricted admin 與 grant 可存取所有實驗室
func (a LabAccess) Unrestricted() bool {
	return model.BypassesLabFilter(a.Role)
}

func (a LabAccess) Allows(lab string) bool {
	return a.Unrestricted() || slices.Contains(a.Labs, lab)
}

// Filter 產生列表查詢條件；受限使用者的 Labs 一定非 nil
func (a LabAccess) Filter(lab, status, search string) model.EquipmentFilter {
	f := model.EquipmentFilter{Lab: lab, Status: status, Search: search}
	if !a.Unrestricted() {
		f.Labs = append([]string{}, a.Labs...)
	}
	return f
}
