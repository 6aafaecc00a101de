package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
)

// Text 接受 JSON 字串或數字 (序號常以數字出現在試算表匯出檔)
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*t = Text(n.String())
	}
	return nil
}

// UnmarshalParam 供 echo 綁定表單欄位
func (t *Text) UnmarshalParam(param string) error {
	*t = Text(param)
	return nil
}

// Number 接受 JSON 數字或數字字串；null 與空字串視為未提供
type Number string

func (n *Number) UnmarshalParam(param string) error {
	*n = Number(strings.TrimSpace(param))
	return nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	*n = Number(strings.TrimSpace(string(t)))
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return json.Marshal(string(n))
	}
	return []byte(n), nil
}

// Item 匯入檔與備份檔中的一筆設備
type Item struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Lab          string  `json:"lab"`
	SerialNumber Text    `json:"serialNumber"`
	Quantity     Number  `json:"quantity"`
	Status       string  `json:"status"`
	Model        Text    `json:"model,omitempty"`
	FIUID        Text    `json:"fiuId,omitempty"`
	BuyingDate   string  `json:"buyingDate,omitempty"`
	Price        Number  `json:"price,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	Image        string  `json:"image,omitempty"`
	ManualLink   string  `json:"manualLink,omitempty"`
	CreatedAt    *string `json:"created_at,omitempty"`
	UpdatedAt    *string `json:"updated_at,omitempty"`
}

// Document 完整備份檔 (metadata + equipment)
type Document struct {
	Metadata  Metadata `json:"metadata"`
	Equipment []Item   `json:"equipment"`
}

var ErrInvalidFormat = errors.New("invalid backup file format")

// ValidationError 匯入前驗證失敗，整批不寫入
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d validation errors: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// DecodeItems 讀取設備陣列或含 metadata 的完整備份
func DecodeItems(r io.Reader) ([]Item, *Metadata, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil, ErrInvalidFormat
	}

	if raw[0] == '[' {
		var items []Item
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return items, nil, nil
	}

	var doc struct {
		Metadata  *Metadata `json:"metadata"`
		Equipment []Item    `json:"equipment"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Metadata == nil || doc.Equipment == nil {
		return nil, nil, ErrInvalidFormat
	}
	return doc.Equipment, doc.Metadata, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ParseQuantity 數量必須為正整數
func ParseQuantity(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("invalid quantity %q. Must be a positive integer", s)
	}
	return int(f), nil
}

// ParsePrice 空字串表示未提供，其餘須為非負數
func ParsePrice(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid price %q. Must be a positive number", s)
	}
	return &f, nil
}

// ParseBuyingDate 空字串表示未提供，其餘須為 YYYY-MM-DD
func ParseBuyingDate(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return nil, fmt.Errorf("invalid buying date format %q. Use YYYY-MM-DD format", s)
	}
	return &s, nil
}

// Equipment 驗證並轉為資料模型；problems 為空表示通過
func (it Item) Equipment() (*model.Equipment, []string) {
	var problems []string
	required := []struct {
		field string
		value string
	}{
		{"name", it.Name},
		{"category", it.Category},
		{"lab", it.Lab},
		{"serialNumber", string(it.SerialNumber)},
		{"quantity", string(it.Quantity)},
		{"status", it.Status},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, fmt.Sprintf("missing required field %q", r.field))
		}
	}
	if !model.IsLab(it.Lab) {
		problems = append(problems, fmt.Sprintf("invalid lab %q. Must be one of: %s", it.Lab, strings.Join(model.Labs, ", ")))
	}
	if !model.IsEquipmentStatus(it.Status) {
		problems = append(problems, fmt.Sprintf("invalid status %q. Must be one of: %s", it.Status, strings.Join(model.EquipmentStatuses, ", ")))
	}

	e := &model.Equipment{
		Name:         strings.TrimSpace(it.Name),
		Category:     strings.TrimSpace(it.Category),
		Lab:          it.Lab,
		SerialNumber: strings.TrimSpace(string(it.SerialNumber)),
		Status:       it.Status,
		Model:        optional(string(it.Model)),
		FIUID:        optional(string(it.FIUID)),
		Notes:        strings.TrimSpace(it.Notes),
		Image:        optional(it.Image),
		ManualLink:   optional(it.ManualLink),
	}
	if it.Quantity != "" {
		q, err := ParseQuantity(string(it.Quantity))
		if err != nil {
			problems = append(problems, err.Error())
		}
		e.Quantity = q
	}
	var err error
	if e.Price, err = ParsePrice(string(it.Price)); err != nil {
		problems = append(problems, err.Error())
	}
	if e.BuyingDate, err = ParseBuyingDate(it.BuyingDate); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return e, nil
}

// ItemFromEquipment 轉為備份 / 匯入格式，只輸出有值的選填欄位
func ItemFromEquipment(e model.Equipment) Item {
	it := Item{
		Name:         e.Name,
		Category:     e.Category,
		Lab:          e.Lab,
		SerialNumber: Text(e.SerialNumber),
		Quantity:     Number(strconv.Itoa(e.Quantity)),
		Status:       e.Status,
		Notes:        e.Notes,
	}
	if it.Status == "" {
		it.Status = model.StatusNotSpecified
	}
	if e.Model != nil {
		it.Model = Text(*e.Model)
	}
	if e.FIUID != nil {
		it.FIUID = Text(*e.FIUID)
	}
	if e.BuyingDate != nil {
		it.BuyingDate = *e.BuyingDate
	}
	if e.Price != nil {
		it.Price = Number(strconv.FormatFloat(*e.Price, 'f', -1, 64))
	}
	if e.Image != nil {
		it.Image = *e.Image
	}
	if e.ManualLink != nil {
		it.ManualLink = *e.ManualLink
	}
	if !e.CreatedAt.IsZero() {
		s := database.FormatTime(e.CreatedAt)
		it.CreatedAt = &s
	}
	if !e.UpdatedAt.IsZero() {
		s := database.FormatTime(e.UpdatedAt)
		it.UpdatedAt = &s
	}
	return it
}

// ValidateItems 驗證整批資料，錯誤訊息以 "Item N:" 開頭
func ValidateItems(items []Item) ([]*model.Equipment, error) {
	out := make([]*model.Equipment, 0, len(items))
	var problems []string
	for i, it := range items {
		e, p := it.Equipment()
		for _, msg := range p {
			problems = append(problems, fmt.Sprintf("Item %d: %s", i+1, msg))
		}
		if e != nil {
			out = append(out, e)
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return out, nil
}
