package service

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"lab-inventory/internal/model"

	"github.com/google/uuid"
)

var newSetupTokenValue = uuid.NewString

var ErrInvalidSetupToken = errors.New("invalid or expired setup token")

// SetupToken 一次性的密碼設定憑證
type SetupToken struct {
	Value  string
	Expiry time.Time
}

func NewSetupToken(ttl time.Duration) SetupToken {
	return SetupToken{Value: newSetupTokenValue(), Expiry: timeNow().Add(ttl).UTC()}
}

// CheckSetupToken 使用者必須仍持有 token 且未過期
func CheckSetupToken(u *model.User, token string, now time.Time) error {
	if u == nil || token == "" || u.SetupToken == nil || *u.SetupToken != token {
		return ErrInvalidSetupToken
	}
	if u.SetupTokenExpiry == nil || !now.Before(*u.SetupTokenExpiry) {
		return ErrInvalidSetupToken
	}
	return nil
}

// SetupURL 組出前端設定密碼頁面的連結
func SetupURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/setup-password.html?token=" + url.QueryEscape(token)
}

// DescribeTTL 邀請信中顯示的有效期限，例如 "24 hours"
func DescribeTTL(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	return plural(int(d/time.Minute), "minute")
}
