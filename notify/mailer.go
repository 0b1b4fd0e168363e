// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/matryer/try"
)

// deliveryAttempts bounds in-process retries of a single send.
const deliveryAttempts = 3

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "mail", "to", msg.To, "subject", msg.Subject, "body_bytes", len(msg.Body))
	return nil
}

func deliver(ctx context.Context, mailer Mailer, msg Message) error {
	err := try.Do(func(attempt int) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		return attempt < deliveryAttempts, mailer.Send(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", msg.To, err)
	}
	return nil
}
