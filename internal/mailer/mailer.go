// Package mailer delivers HTML e-mails. Delivery outcomes are returned as a
// Result value instead of an error so batch callers can record each outcome
// and carry on.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"

	"github.com/tbourn/moneywise/internal/config"
)

// Status is the delivery state of one message.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Result is the outcome of Send. Err is set when Status is StatusFailed.
type Result struct {
	Status Status
	Err    error
}

// Sent returns a successful Result.
func Sent() Result { return Result{Status: StatusSent} }

// Failed returns a failed Result carrying err.
func Failed(err error) Result { return Result{Status: StatusFailed, Err: err} }

// OK reports whether the message was handed to the transport.
func (r Result) OK() bool { return r.Status == StatusSent }

// Message is a single HTML e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) Result
}

// ErrNoRecipient is reported for messages without a To address.
var ErrNoRecipient = errors.New("no recipient address")

// New returns an SMTP mailer when cfg.Host is set and a LogMailer otherwise.
func New(cfg config.MailConfig) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct{}

// Send logs msg and reports it as sent.
func (LogMailer) Send(ctx context.Context, msg Message) Result {
	if strings.TrimSpace(msg.To) == "" {
		return Failed(ErrNoRecipient)
	}
	log.Ctx(ctx).Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTML)).
		Msg("mail (log transport)")
	return Sent()
}

// SMTPMailer delivers through an SMTP relay, upgrading to TLS when the server
// offers STARTTLS and authenticating with PLAIN when credentials are set.
type SMTPMailer struct {
	cfg config.MailConfig
}

// Send delivers msg. The dial is bounded by the configured timeout and the
// whole session by ctx.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) Result {
	if strings.TrimSpace(msg.To) == "" {
		return Failed(ErrNoRecipient)
	}
	gm, err := buildMessage(m.cfg.From, msg, time.Now())
	if err != nil {
		return Failed(err)
	}
	c, err := m.client()
	if err != nil {
		return Failed(fmt.Errorf("smtp client: %w", err))
	}
	if err := c.DialAndSendWithContext(ctx, gm); err != nil {
		return Failed(fmt.Errorf("smtp send: %w", err))
	}
	return Sent()
}

func (m *SMTPMailer) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTLSConfig(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}),
		gomail.WithPort(m.cfg.Port),
		gomail.WithTimeout(m.cfg.DialTimeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return gomail.NewClient(m.cfg.Host, opts...)
}

// buildMessage assembles the MIME message. from may carry a display name;
// the envelope sender is its bare address.
func buildMessage(from string, msg Message, now time.Time) (*gomail.Msg, error) {
	gm := gomail.NewMsg()
	if err := gm.From(from); err != nil {
		return nil, fmt.Errorf("sender %q: %w", from, err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient %q: %w", msg.To, err)
	}
	gm.Subject(msg.Subject)
	gm.SetDateWithValue(now)
	gm.SetMessageID()
	gm.SetUserAgent("MoneyWise")
	gm.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return gm, nil
}
