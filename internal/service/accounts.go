package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
	"lab-inventory/internal/store"
)

var (
	countUsers = store.CountUsers
	createUser = store.CreateUser
)

// CreateActiveUser 直接建立已啟用的帳號 (不經邀請流程)
func CreateActiveUser(ctx context.Context, db database.DB, u model.User, password string) (*model.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = &hash
	u.Status = model.UserStatusActive
	u.SetupToken = nil
	u.SetupTokenExpiry = nil
	if u.AuthorizedLabs == nil {
		u.AuthorizedLabs = []string{}
	}
	return createUser(ctx, db, &u)
}

// EnsureAdmin 資料庫沒有任何使用者時建立預設管理員，回傳是否有建立
func EnsureAdmin(ctx context.Context, db database.DB, email, password string, log *zap.Logger) (bool, error) {
	n, err := countUsers(ctx, db)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	admin := model.User{
		FirstName:      "System",
		LastName:       "Administrator",
		Email:          email,
		PantherID:      "000000",
		Role:           model.RoleAdmin,
		AuthorizedLabs: append([]string(nil), model.Labs...),
	}
	if _, err := CreateActiveUser(ctx, db, admin, password); err != nil {
		return false, fmt.Errorf("EnsureAdmin: %w", err)
	}
	if log != nil {
		log.Warn("created default admin account, change its password after first login", zap.String("email", email))
	}
	return true, nil
}
