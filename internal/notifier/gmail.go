package notifier

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/sirupsen/logrus"

	"docroute-api/internal/config"
)

// GmailNotifier sends notifications through the Gmail API using an
// OAuth2 refresh token. Alternative to the SMTP transport for
// deployments without SMTP credentials.
type GmailNotifier struct {
	service   *gmail.Service
	userEmail string
}

// NewGmailNotifier creates a Gmail API notifier.
func NewGmailNotifier(cfg *config.MailConfig) (*GmailNotifier, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailNotifier{
		service:   service,
		userEmail: cfg.UserEmail,
	}, nil
}

// Send builds a raw MIME message and dispatches it via the Gmail API.
func (n *GmailNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dispatch cancelled: %w", err)
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	raw, err := n.buildMIME(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	message := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	if _, err := n.service.Users.Messages.Send(n.userEmail, message).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send via Gmail API: %w", err)
	}

	logrus.Infof("Dispatched notification to %s via Gmail API", strings.Join(msg.To, ", "))
	return nil
}

// buildMIME assembles the raw RFC 2822 message: multipart/alternative
// for text+html, wrapped in multipart/mixed when an attachment exists.
func (n *GmailNotifier) buildMIME(msg Message) (string, error) {
	var b strings.Builder

	altBoundary := fmt.Sprintf("docroute-alt-%d", time.Now().UnixNano())
	mixedBoundary := fmt.Sprintf("docroute-mix-%d", time.Now().UnixNano())

	var attachment []byte
	if msg.AttachmentPath != "" {
		data, err := os.ReadFile(msg.AttachmentPath)
		if err != nil {
			logrus.Warnf("Attachment %s not readable, sending without it: %v", msg.AttachmentPath, err)
		} else {
			attachment = data
		}
	}

	b.WriteString(fmt.Sprintf("From: %s\r\n", n.userEmail))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")

	if attachment != nil {
		b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixedBoundary))
		b.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	}

	if msg.HTMLBody != "" {
		b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", altBoundary))
		b.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.TextBody)
		b.WriteString(fmt.Sprintf("\r\n--%s\r\n", altBoundary))
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTMLBody)
		b.WriteString(fmt.Sprintf("\r\n--%s--\r\n", altBoundary))
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.TextBody)
		b.WriteString("\r\n")
	}

	if attachment != nil {
		filename := filepath.Base(msg.AttachmentPath)
		b.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		b.WriteString("Content-Type: application/octet-stream\r\n")
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", filename))
		b.WriteString(base64.StdEncoding.EncodeToString(attachment))
		b.WriteString(fmt.Sprintf("\r\n--%s--\r\n", mixedBoundary))
	}

	return b.String(), nil
}

// Close is a no-op; the Gmail service holds no persistent connection.
func (n *GmailNotifier) Close() error {
	return nil
}
