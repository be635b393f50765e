package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"time"

	mail "github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"

	"docroute-api/internal/config"
)

// SMTPNotifier sends notifications over SMTP with mandatory STARTTLS.
type SMTPNotifier struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPNotifier creates an SMTP notifier from mail configuration.
func NewSMTPNotifier(cfg *config.MailConfig, timeout time.Duration) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp not configured (host/from)")
	}

	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	d.Timeout = timeout

	return &SMTPNotifier{dialer: d, from: cfg.From}, nil
}

// Send dispatches one message. A dial or send error, including a
// timeout, is returned as-is for the caller to record as a failure.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dispatch cancelled: %w", err)
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	if msg.AttachmentPath != "" {
		if _, err := os.Stat(msg.AttachmentPath); err == nil {
			m.Attach(msg.AttachmentPath)
		} else {
			logrus.Warnf("Attachment %s not found, sending without it", msg.AttachmentPath)
		}
	}

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// Close is a no-op; the dialer opens a fresh connection per send.
func (n *SMTPNotifier) Close() error {
	return nil
}
