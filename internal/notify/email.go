package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/evanofslack/cloudflare-ddns/internal/config"
)

// Email sends plain-text mail through a relay that must offer STARTTLS.
type Email struct {
	cfg     config.Email
	site    string
	timeout time.Duration

	// tlsConfig overrides go-mail's default verification of the relay.
	tlsConfig *tls.Config
}

func NewEmail(cfg config.Email, site string, timeout time.Duration) *Email {
	return &Email{cfg: cfg, site: site, timeout: timeout}
}

func (e *Email) Name() string {
	return "email"
}

func (e *Email) Subject() string {
	return fmt.Sprintf("%s DDNS Update", e.site)
}

func (e *Email) Send(ctx context.Context, message string) error {
	msg := mail.NewMsg()
	if err := msg.From(e.cfg.From); err != nil {
		return fmt.Errorf("set sender %q: %w", e.cfg.From, err)
	}
	if err := msg.To(e.cfg.To); err != nil {
		return fmt.Errorf("set recipient %q: %w", e.cfg.To, err)
	}
	msg.Subject(e.Subject())
	msg.SetBodyString(mail.TypeTextPlain, message)

	opts := []mail.Option{
		mail.WithPort(e.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if e.timeout > 0 {
		opts = append(opts, mail.WithTimeout(e.timeout))
	}
	if e.tlsConfig != nil {
		opts = append(opts, mail.WithTLSConfig(e.tlsConfig))
	}
	// Login only when both halves of the credentials are set.
	if e.cfg.Username != "" && e.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(authType(e.cfg.Auth)),
			mail.WithUsername(e.cfg.Username),
			mail.WithPassword(e.cfg.Password),
		)
	}

	client, err := mail.NewClient(e.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	// DialAndSendWithContext closes the connection on every path.
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email via %s:%d: %w", e.cfg.Host, e.cfg.Port, err)
	}
	return nil
}

func authType(name string) mail.SMTPAuthType {
	switch strings.ToLower(name) {
	case config.EmailAuthLogin:
		return mail.SMTPAuthLogin
	case config.EmailAuthCramMD5:
		return mail.SMTPAuthCramMD5
	}
	return mail.SMTPAuthPlain
}
