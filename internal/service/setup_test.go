package service

import (
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lab-inventory/internal/model"
)

func TestSetupToken(t *testing.T) {
	t.Cleanup(restoreGlobals)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	newSetupTokenValue = func() string { return "abc" }

	tok := NewSetupToken(24 * time.Hour)
	require.Equal(t, "abc", tok.Value)
	require.Equal(t, now.Add(24*time.Hour), tok.Expiry)

	u := &model.User{SetupToken: &tok.Value, SetupTokenExpiry: &tok.Expiry}
	require.NoError(t, CheckSetupToken(u, "abc", now.Add(time.Hour)))
	require.ErrorIs(t, CheckSetupToken(u, "abc", now.Add(25*time.Hour)), ErrInvalidSetupToken)
	require.ErrorIs(t, CheckSetupToken(u, "other", now), ErrInvalidSetupToken)
	require.ErrorIs(t, CheckSetupToken(u, "", now), ErrInvalidSetupToken)
	require.ErrorIs(t, CheckSetupToken(nil, "abc", now), ErrInvalidSetupToken)
	require.ErrorIs(t, CheckSetupToken(&model.User{}, "abc", now), ErrInvalidSetupToken)

	require.Equal(t, "http://lab.example/setup-password.html?token=a+b", SetupURL("http://lab.example/", "a b"))
}

func TestMailer(t *testing.T) {
	t.Cleanup(restoreGlobals)
	inv := Invitation{
		User: model.User{
			FirstName:      "Grace",
			LastName:       "Hopper",
			Email:          "grace@fiu.edu",
			Role:           model.RoleFaculty,
			AuthorizedLabs: []string{"EC3625", "OU107"},
		},
		SetupURL: "http://lab.example/setup-password.html?token=t",
		TTL:      "24 hours",
	}

	called := false
	smtpSendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	// 未設定 SMTP 只記錄
	dev := NewMailer(MailConfig{}, zap.NewNop())
	require.NoError(t, dev.SendInvitation(inv))
	require.False(t, called)
	require.Equal(t, "Welcome to CEE Lab Equipment Manager - Set Your Password", dev.Subject())

	body, err := dev.RenderInvitation(inv)
	require.NoError(t, err)
	require.Contains(t, body, "Hello Grace Hopper")
	require.Contains(t, body, "EC3625, OU107")
	require.Contains(t, body, "24 hours")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	smtpSendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}
	m := NewMailer(MailConfig{Host: "smtp.example", Username: "bot@fiu.edu", Password: "p"}, nil)
	require.NoError(t, m.SendInvitation(inv))
	require.Equal(t, "smtp.example:587", gotAddr)
	require.Equal(t, "bot@fiu.edu", gotFrom)
	require.Equal(t, []string{"grace@fiu.edu"}, gotTo)
	require.Contains(t, string(gotMsg), "Content-Type: text/html")

	smtpSendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("down") }
	require.Error(t, m.SendInvitation(inv))
}

func TestDescribeTTL(t *testing.T) {
	require.Equal(t, "24 hours", DescribeTTL(24*time.Hour))
	require.Equal(t, "1 hour", DescribeTTL(time.Hour))
	require.Equal(t, "90 minutes", DescribeTTL(90*time.Minute))
}
