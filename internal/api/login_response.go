package api

import "lab-inventory/internal/model"

// SessionUser 登入後回傳給前端的使用者資訊
// swagger:model api.SessionUser
type SessionUser struct {
	ID             int64    `json:"id" example:"1"`
	FirstName      string   `json:"firstName,omitempty" example:"Ada"`
	LastName       string   `json:"lastName,omitempty" example:"Lovelace"`
	Email          string   `json:"email" example:"ada@fiu.edu"`
	Role           string   `json:"role" example:"faculty"`
	AuthorizedLabs []string `json:"authorizedLabs" example:"EC3625,EC3630"`
}

func NewSessionUser(u model.User) SessionUser {
	labs := u.AuthorizedLabs
	if labs == nil {
		labs = []string{}
	}
	return SessionUser{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Role:           u.Role,
		AuthorizedLabs: labs,
	}
}

// swagger:model api.LoginResponse
type LoginResponse struct {
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
	User  SessionUser `json:"user"`
}

// swagger:model api.VerifyResponse
type VerifyResponse struct {
	User SessionUser `json:"user"`
}
