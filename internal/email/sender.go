// Package email delivers drip sequence messages.
package email

import (
	"context"

	"agency_crm_backend/platform/config"
)

// Sender delivers a rendered drip message to one recipient.
type Sender interface {
	SendDripMessage(ctx context.Context, toEmail, subject, body string) error
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendDripMessage(ctx context.Context, toEmail, subject, body string) error {
	return nil
}

// NewSender returns an SMTP sender when cfg is complete, otherwise a NoopSender.
func NewSender(cfg config.SMTPConfig) Sender {
	if cfg == nil || !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromAddress(),
		cfg.GetSMTPFromName(),
	)
}
