package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"unicornfarm/internal/config"
	"unicornfarm/internal/models"
	"unicornfarm/internal/observability"

	"github.com/wneessen/go-mail"
)

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	client *mail.Client
}

// NewSMTPSender builds an SMTP sender from the mail settings in cfg.
func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(cfg.MailTimeout),
		mail.WithTLSPolicy(tlsPolicy(cfg.SMTPTLS)),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client}, nil
}

func tlsPolicy(value string) mail.TLSPolicy {
	switch strings.ToLower(value) {
	case "mandatory":
		return mail.TLSMandatory
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}

// Send dials the relay, delivers msg and closes the connection.
func (s *SMTPSender) Send(ctx context.Context, msg *mail.Msg) error {
	return s.client.DialAndSendWithContext(ctx, msg)
}

// LogSender writes messages to the log instead of delivering them. It is used
// when no SMTP host is configured outside production.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg *mail.Msg) error {
	observability.Logger.InfoContext(ctx, "mail delivery skipped, no SMTP host configured",
		slog.Any("to", msg.GetToString()),
		slog.Any("subject", msg.GetGenHeader(mail.HeaderSubject)),
	)
	return nil
}

// NewSender returns the SMTP sender for cfg, or a LogSender when SMTP_HOST is empty.
func NewSender(cfg *config.Config) (Sender, error) {
	if cfg.SMTPHost == "" {
		observability.Logger.Warn("SMTP_HOST is not set; purchase digests will only be logged")
		return LogSender{}, nil
	}
	return NewSMTPSender(cfg)
}

// Mailer composes purchase digests and hands them to a Sender under a deadline.
type Mailer struct {
	sender  Sender
	from    string
	timeout time.Duration
}

// New creates a Mailer. A non-positive timeout means no deadline beyond ctx.
func New(sender Sender, from string, timeout time.Duration) *Mailer {
	return &Mailer{sender: sender, from: from, timeout: timeout}
}

// Compose builds the digest message for unicorn addressed to recipient.
func (m *Mailer) Compose(recipient string, unicorn *models.Unicorn) (*mail.Msg, error) {
	digest, err := RenderDigest(unicorn)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(digest.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, digest.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, digest.HTML)
	return msg, nil
}

// SendPurchaseDigest renders the digest of every post on unicorn and delivers it
// to recipient. The call returns when delivery finished or the deadline passed,
// whichever comes first.
func (m *Mailer) SendPurchaseDigest(ctx context.Context, recipient string, unicorn *models.Unicorn) (err error) {
	start := time.Now()
	defer func() { observability.ObserveMailDelivery(start, err) }()

	msg, err := m.Compose(recipient, unicorn)
	if err != nil {
		return err
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- m.sender.Send(ctx, msg)
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send digest: %w", ctx.Err())
	}
}
