package users

import (
	"time"

	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
	"lab-inventory/internal/worker"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Invites 產生設定密碼 token，並在背景寄出邀請信
type Invites struct {
	Pool    worker.Pool
	Mailer  *service.Mailer
	TTL     time.Duration
	BaseURL func(scheme, host string) string
	Log     *zap.Logger
}

func (inv *Invites) setupURL(c echo.Context, token string) string {
	base := c.Scheme() + "://" + c.Request().Host
	if inv.BaseURL != nil {
		base = inv.BaseURL(c.Scheme(), c.Request().Host)
	}
	return service.SetupURL(base, token)
}

// enqueue 回傳 false 表示工作池已停止，信件不會寄出
func (inv *Invites) enqueue(u model.User, setupURL string) bool {
	if inv.Pool == nil || inv.Mailer == nil {
		return false
	}
	log := inv.Log
	if log == nil {
		log = zap.NewNop()
	}
	invitation := service.Invitation{User: u, SetupURL: setupURL, TTL: service.DescribeTTL(inv.TTL)}
	return inv.Pool.Submit(func() {
		if err := inv.Mailer.SendInvitation(invitation); err != nil {
			log.Warn("failed to send invitation email", zap.String("email", u.Email), zap.Error(err))
		}
	})
}
