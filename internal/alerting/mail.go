package alerting

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

// MailOptions configure the SMTP relay. Credentials come from configuration,
// never from source.
type MailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// MailNotifier sends plaintext mail over an implicit-TLS authenticated SMTP session.
type MailNotifier struct {
	opts   MailOptions
	logger zerolog.Logger
	send   func(ctx context.Context, msg *gomail.Msg) error
}

// NewMailNotifier constructs the SMTP notifier.
func NewMailNotifier(opts MailOptions, logger zerolog.Logger) *MailNotifier {
	if opts.Port <= 0 {
		opts.Port = 465
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	n := &MailNotifier{
		opts:   opts,
		logger: logger.With().Str("component", "notify_mail").Logger(),
	}
	n.send = n.dialAndSend
	return n
}

// Notify builds the message and hands it to the relay. No retry.
func (n *MailNotifier) Notify(ctx context.Context, note Notification) error {
	msg, err := n.buildMessage(note)
	if err != nil {
		return err
	}

	n.logger.Info().Str("to", n.opts.To).Msg("sending email...")
	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	n.logger.Info().Str("to", n.opts.To).
		Str("price", note.Price.StringFixed(2)).
		Msgf("Sent email to %s", n.opts.To)
	return nil
}

// WriteMessage renders the RFC 5322 message for note without sending it.
func (n *MailNotifier) WriteMessage(w io.Writer, note Notification) error {
	msg, err := n.buildMessage(note)
	if err != nil {
		return err
	}
	_, err = msg.WriteTo(w)
	return err
}

func (n *MailNotifier) buildMessage(note Notification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(n.opts.From); err != nil {
		return nil, fmt.Errorf("mail from %q: %w", n.opts.From, err)
	}
	if err := msg.To(n.opts.To); err != nil {
		return nil, fmt.Errorf("mail to %q: %w", n.opts.To, err)
	}
	msg.Subject(note.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, note.Body)
	return msg, nil
}

func (n *MailNotifier) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(n.opts.Host,
		gomail.WithPort(n.opts.Port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.opts.Username),
		gomail.WithPassword(n.opts.Password),
		gomail.WithTimeout(n.opts.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

var _ Notifier = (*MailNotifier)(nil)
