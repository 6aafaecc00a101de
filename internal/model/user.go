// File: internal/model/user.go
package model

import (
	"slices"
	"strings"
	"time"
)

// 使用者角色
const (
	RoleAdmin   = "admin"
	RoleGrant   = "grant"
	RoleFaculty = "faculty"
)

// 使用者狀態
const (
	UserStatusPending  = "pending"
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

var (
	Roles        = []string{RoleAdmin, RoleGrant, RoleFaculty}
	UserStatuses = []string{UserStatusActive, UserStatusPending, UserStatusInactive}
)

type User struct {
	ID               int64      `db:"id" json:"id"`
	FirstName        string     `db:"first_name" json:"firstName"`
	LastName         string     `db:"last_name" json:"lastName"`
	Email            string     `db:"email" json:"email"`
	PantherID        string     `db:"panther_id" json:"pantherId"`
	PhoneNumber      *string    `db:"phone_number" json:"phoneNumber,omitempty"`
	PasswordHash     *string    `db:"password_hash" json:"-"`
	Role             string     `db:"role" json:"role"`
	AuthorizedLabs   []string   `db:"authorized_labs" json:"authorizedLabs"`
	Status           string     `db:"status" json:"status"`
	SetupToken       *string    `db:"setup_token" json:"-"`
	SetupTokenExpiry *time.Time `db:"setup_token_expiry" json:"-"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

func IsRole(r string) bool { return slices.Contains(Roles, r) }

func IsUserStatus(s string) bool { return slices.Contains(UserStatuses, s) }

// FullName 回傳 "名 姓"
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// BypassesLabFilter admin 與 grant 不受實驗室授權限制
func BypassesLabFilter(role string) bool {
	return role == RoleAdmin || role == RoleGrant
}

// JoinLabs 將實驗室清單轉為資料庫儲存的逗號字串
func JoinLabs(labs []string) string {
	return strings.Join(labs, ",")
}

// SplitLabs 解析逗號字串，忽略空白項目
func SplitLabs(s string) []string {
	labs := []string{}
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labs = append(labs, l)
		}
	}
	return labs
}
