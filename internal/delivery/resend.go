package delivery

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendConfig configures the HTTP email API alternative to SMTP.
type ResendConfig struct {
	APIKey string
	To     string
	From   string
}

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend delivers lead mail through the Resend API.
type Resend struct {
	cfg    ResendConfig
	emails resendEmails
}

// NewResend returns a Resend channel for cfg.
func NewResend(cfg ResendConfig) *Resend {
	r := &Resend{cfg: cfg}
	if cfg.APIKey != "" {
		r.emails = resend.NewClient(cfg.APIKey).Emails
	}
	return r
}

func (r *Resend) Name() string { return "resend" }

func (r *Resend) Configured() bool {
	return r.cfg.APIKey != "" && r.cfg.To != "" && r.cfg.From != "" && r.emails != nil
}

// Send implements Channel.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	if !r.Configured() {
		return ErrNotConfigured
	}
	sent, err := r.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.cfg.From,
		To:      []string{r.cfg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend: empty response")
	}
	return nil
}
