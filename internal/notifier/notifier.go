// Package notifier is the outbound notification boundary. The engine
// decides what and when to send; implementations here own how the bytes
// reach a mail server.
package notifier

import "context"

// Message is one notification to dispatch.
type Message struct {
	To             []string
	Subject        string
	TextBody       string
	HTMLBody       string
	AttachmentPath string
}

// Notifier dispatches a message and reports the outcome. Any returned
// error is treated as a dispatch failure by the caller; there is no
// retry contract here.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}
