package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"lab-inventory/internal/model"
)

var smtpSendMail = smtp.SendMail

// MailConfig SMTP 設定；Host 為空時只記錄連結 (開發模式)
type MailConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	From        string
	SystemName  string
	CompanyName string
}

// Invitation 新使用者的邀請信內容
type Invitation struct {
	User     model.User
	SetupURL string
	TTL      string
}

type Mailer struct {
	conf MailConfig
	log  *zap.Logger
}

func NewMailer(conf MailConfig, log *zap.Logger) *Mailer {
	if conf.SystemName == "" {
		conf.SystemName = "CEE Lab Equipment Manager"
	}
	if conf.CompanyName == "" {
		conf.CompanyName = "Florida International University"
	}
	if conf.Port == "" {
		conf.Port = "587"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{conf: conf, log: log}
}

var invitationTmpl = template.Must(template.New("invite").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #1e3c72;">Welcome to {{.System}}</h2>
  <p>Hello {{.Name}},</p>
  <p>You have been invited to join the {{.System}} at {{.Company}} as a <strong>{{.Role}}</strong>.</p>
  <p><strong>Your Account Details:</strong></p>
  <ul>
    <li>Email: {{.Email}}</li>
    <li>Role: {{.Role}}</li>
    <li>Authorized Labs: {{.Labs}}</li>
  </ul>
  <p>To complete your registration, please click the link below to set your password:</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="{{.URL}}" style="background: #1e3c72; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; display: inline-block;">Set Your Password</a>
  </p>
  <p style="font-size: 12px; color: #666;">This link will expire in {{.TTL}}. If you have any questions, please contact the system administrator.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="font-size: 12px; color: #999; text-align: center;">{{.Company}} - {{.System}}</p>
</div>`))

// Subject 邀請信主旨
func (m *Mailer) Subject() string {
	return fmt.Sprintf("Welcome to %s - Set Your Password", m.conf.SystemName)
}

// RenderInvitation 產生邀請信 HTML
func (m *Mailer) RenderInvitation(inv Invitation) (string, error) {
	var buf bytes.Buffer
	err := invitationTmpl.Execute(&buf, map[string]any{
		"System":  m.conf.SystemName,
		"Company": m.conf.CompanyName,
		"Name":    inv.User.FullName(),
		"Email":   inv.User.Email,
		"Role":    inv.User.Role,
		"Labs":    strings.Join(inv.User.AuthorizedLabs, ", "),
		"URL":     inv.SetupURL,
		"TTL":     inv.TTL,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendInvitation 寄出邀請信；未設定 SMTP 時只記錄連結
func (m *Mailer) SendInvitation(inv Invitation) error {
	if m.conf.Host == "" {
		m.log.Warn("smtp not configured, setup link logged instead",
			zap.String("email", inv.User.Email),
			zap.String("setup_url", inv.SetupURL),
		)
		return nil
	}

	body, err := m.RenderInvitation(inv)
	if err != nil {
		return fmt.Errorf("render invitation: %w", err)
	}

	from := m.conf.From
	if from == "" {
		from = m.conf.Username
	}
	msg := buildMIME(m.conf.SystemName, from, inv.User.Email, m.Subject(), body)

	var auth smtp.Auth
	if m.conf.Username != "" {
		auth = smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
	}
	addr := m.conf.Host + ":" + m.conf.Port
	if err := smtpSendMail(addr, auth, from, []string{inv.User.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("send invitation: %w", err)
	}
	m.log.Info("invitation sent", zap.String("email", inv.User.Email))
	return nil
}

func buildMIME(fromName, fromAddr, to, subject, html string) string {
	headers := []string{
		fmt.Sprintf("From: %q <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + html
}
