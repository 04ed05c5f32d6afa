// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch delivers the rendered digest over authenticated SMTP.
// Delivery is attempted a bounded number of times with increasing backoff.
// Exhaustion is the run's only terminal delivery failure; authentication
// rejections abort immediately since retrying the same credentials cannot
// succeed.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/pdiddy/surgical-scout/internal/logging"
	"github.com/pdiddy/surgical-scout/pkg/types"
)

// ErrAuthFailed marks an SMTP authentication rejection. It is never retried.
var ErrAuthFailed = errors.New("smtp authentication failed")

// retryDelay is the base delay between delivery attempts. Tests override
// this to avoid real sleeps.
var retryDelay = 5 * time.Second

const defaultMaxAttempts = 3

// sendFunc performs one delivery attempt.
type sendFunc func(ctx context.Context, subject, htmlBody string) error

// Dispatcher sends the digest email with bounded retry.
type Dispatcher struct {
	cfg  types.DispatchConfig
	send sendFunc
	log  *logging.RunLog
}

// New returns a Dispatcher backed by a real SMTP client.
func New(cfg types.DispatchConfig, log *logging.RunLog) *Dispatcher {
	d := &Dispatcher{cfg: cfg, log: log}
	d.send = d.smtpSend
	return d
}

// NewWithSender returns a Dispatcher with a custom delivery function.
func NewWithSender(cfg types.DispatchConfig, log *logging.RunLog, send sendFunc) *Dispatcher {
	return &Dispatcher{cfg: cfg, send: send, log: log}
}

// Dispatch delivers one message. Transient failures are retried up to
// MaxAttempts with linearly increasing backoff; an error return means the
// run's delivery has terminally failed.
func (d *Dispatcher) Dispatch(ctx context.Context, subject, htmlBody string) error {
	maxAttempts := d.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * retryDelay
			d.log.Infof("retrying delivery in %s (attempt %d/%d)", backoff, attempt, maxAttempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := d.send(ctx, subject, htmlBody)
		if err == nil {
			d.log.Infof("digest delivered to %s", d.cfg.Recipient)
			return nil
		}
		if errors.Is(err, ErrAuthFailed) {
			d.log.Errorf("delivery aborted: %v", err)
			return err
		}
		d.log.Warnf("delivery attempt %d/%d failed: %v", attempt, maxAttempts, err)
		lastErr = err
	}
	return fmt.Errorf("delivery failed after %d attempts: %w", maxAttempts, lastErr)
}

// smtpSend performs one real SMTP round trip. STARTTLS is mandatory; the
// configured sender address doubles as the authentication username.
func (d *Dispatcher) smtpSend(ctx context.Context, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(d.cfg.Sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(d.cfg.Recipient); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(d.cfg.Host,
		mail.WithPort(d.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(d.cfg.Sender),
		mail.WithPassword(d.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// isAuthError reports whether err is an SMTP 5.3x authentication rejection.
func isAuthError(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code >= 530 && tpErr.Code <= 539
	}
	return false
}
