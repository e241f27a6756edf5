package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// DefaultSMTPPort is the submission port used when none is configured.
const DefaultSMTPPort = 587

// implicitTLSPort selects implicit TLS instead of STARTTLS.
const implicitTLSPort = 465

// SMTPConfig describes the submission server and envelope.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	To       string
	// From defaults to Username.
	From string
}

// SMTP submits leads as plain-text mail.
type SMTP struct {
	cfg SMTPConfig
	// dialAndSend is replaced in tests.
	dialAndSend func(ctx context.Context, c *mail.Client, m *mail.Msg) error
}

// NewSMTP returns an SMTP channel for cfg.
func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTP{
		cfg: cfg,
		dialAndSend: func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, m)
		},
	}
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.To != ""
}

// Send implements Channel.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	m, err := s.message(msg)
	if err != nil {
		return err
	}
	c, err := mail.NewClient(s.cfg.Host, s.options(ctx)...)
	if err != nil {
		return fmt.Errorf("smtp: client: %w", err)
	}
	if err := s.dialAndSend(ctx, c, m); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (s *SMTP) message(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: from: %w", err)
	}
	if err := m.To(s.cfg.To); err != nil {
		return nil, fmt.Errorf("smtp: to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	return m, nil
}

func (s *SMTP) options(ctx context.Context) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			opts = append(opts, mail.WithTimeout(d))
		}
	}
	if s.cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	return opts
}
