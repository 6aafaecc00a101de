package api

import (
	"errors"

	"lab-inventory/internal/model"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NewValidator 註冊實驗室、設備狀態、角色與帳號狀態的自訂標籤
func NewValidator() *CustomValidator {
	v := validator.New()
	mustRegister(v, "lab", model.IsLab)
	mustRegister(v, "equipmentstatus", model.IsEquipmentStatus)
	mustRegister(v, "role", model.IsRole)
	mustRegister(v, "userstatus", model.IsUserStatus)
	return &CustomValidator{validator: v}
}

func mustRegister(v *validator.Validate, tag string, ok func(string) bool) {
	if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return ok(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

var tagMessages = map[string]string{
	"lab":             "Invalid lab",
	"equipmentstatus": "Invalid status",
	"role":            "Invalid role",
	"userstatus":      "Invalid status",
	"email":           "Invalid email format",
	"url":             "Invalid manual link URL",
}

// ValidationMessage 將驗證錯誤轉為前端顯示的訊息；required 類錯誤回傳 missing
func ValidationMessage(err error, missing string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return missing
		}
	}
	fe := verrs[0]
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	if fe.Tag() == "min" {
		if fe.Field() == "Password" || fe.Field() == "NewPassword" {
			return "Password must be at least 6 characters"
		}
		return missing
	}
	return fe.Error()
}
