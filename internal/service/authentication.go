// File: internal/service/authentication.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lab-inventory/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	timeNow         = time.Now
	parseWithClaims = jwt.ParseWithClaims
	newTokenID      = uuid.NewString
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// CustomClaims 定義 JWT 負載內容
type CustomClaims struct {
	ID             int64    `json:"id"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	AuthorizedLabs []string `json:"authorizedLabs"`
	jwt.RegisteredClaims
}

// Access 由 token 內的角色與實驗室建立存取範圍
func (c *CustomClaims) Access() LabAccess {
	return NewLabAccess(c.Role, c.AuthorizedLabs)
}

// AuthenticateUser 只接受 active 且密碼相符的使用者
func AuthenticateUser(ctx context.Context, user model.User, password string) (*model.User, error) {
	if user.Status != model.UserStatusActive || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := ComparePassword(*user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// TokenManager 簽發與驗證 HS256 存取令牌
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue 依據使用者資訊產生 JWT，並回傳其 claims (含 jti)
func (m *TokenManager) Issue(user model.User) (string, *CustomClaims, error) {
	now := timeNow()
	labs := user.AuthorizedLabs
	if labs == nil {
		labs = []string{}
	}
	claims := &CustomClaims{
		ID:             user.ID,
		Email:          user.Email,
		Role:           user.Role,
		AuthorizedLabs: labs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newTokenID(),
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify 驗證並解析 JWT 令牌
func (m *TokenManager) Verify(tokenString string) (*CustomClaims, error) {
	token, err := parseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(timeNow))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
