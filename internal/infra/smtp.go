package infra

import (
	"fmt"
	"net/smtp"

	"github.com/marimovDEV/v0-crm-pos-system/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for outgoing notifications.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// Send delivers a plain-text message, optionally with one attachment.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}

// StockAlertMessage builds the subject and body of a low-stock notification.
func StockAlertMessage(productName, stock, minStock, baseUnit string) (subject, body string) {
	subject = "Low stock: " + productName
	body = fmt.Sprintf("%s is down to %s %s (minimum %s %s).\nPlease reorder.\n",
		productName, stock, baseUnit, minStock, baseUnit)
	return subject, body
}
