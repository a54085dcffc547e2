package utils

import (
	"context"

	"gopkg.in/gomail.v2"
)

// Notifier delivers short operational notices to the administrators.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// NopNotifier drops every notice.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Mailer sends notices by SMTP.
type Mailer struct {
	from   string
	to     []string
	dialer *gomail.Dialer
}

// NewNotifier returns a Mailer when cfg names a host and recipients, and a
// NopNotifier otherwise.
func NewNotifier(cfg SMTPConfig) Notifier {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return NopNotifier{}
	}
	return &Mailer{
		from:   cfg.From,
		to:     cfg.To,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	// DialAndSend takes no context; give up waiting once ctx is done.
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
