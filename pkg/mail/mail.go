// Package mail delivers HTML email over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// System sends messages.
type System interface {
	Send(ctx context.Context, msg Message) error
}

type smtp struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

// New creates an SMTP-backed System, or a System that only logs messages
// when cfg.Enabled is false.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "mail")

	if !cfg.Enabled {
		return &logOnly{logger: logger}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.TimeoutDuration()),
		gomail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &smtp{
		client: client,
		from:   cfg.From,
		logger: logger,
	}, nil
}

func (s *smtp) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient %s: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	s.logger.Debug("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

type logOnly struct {
	logger *slog.Logger
}

func (l *logOnly) Send(_ context.Context, msg Message) error {
	l.logger.Info("mail delivery disabled, message dropped", "to", msg.To, "subject", msg.Subject)
	return nil
}

func tlsPolicy(name string) gomail.TLSPolicy {
	switch name {
	case TLSNone:
		return gomail.NoTLS
	case TLSMandatory:
		return gomail.TLSMandatory
	default:
		return gomail.TLSOpportunistic
	}
}
