package api

import "lab-inventory/internal/model"

// UserResponse 管理介面使用的使用者資料 (不含密碼與設定 token)
// swagger:model api.UserResponse
type UserResponse struct {
	model.User
}

func NewUserResponse(u model.User) UserResponse {
	if u.AuthorizedLabs == nil {
		u.AuthorizedLabs = []string{}
	}
	return UserResponse{User: u}
}

func NewUserList(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
