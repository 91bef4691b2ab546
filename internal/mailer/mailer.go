// Package mailer defines the outbound email contract.
// Actual delivery is an external concern; the service layer only needs
// something that accepts a message.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
)

// Sender delivers transactional emails. Implementations must be safe for
// concurrent use; delivery is best-effort and never blocks a request outcome.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, name, code string) error
	SendWelcome(ctx context.Context, email, name string) error
}

// LogSender writes outbound mail to the structured log instead of
// delivering it. Used in development and tests.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendVerificationCode logs the verification code email.
func (s *LogSender) SendVerificationCode(ctx context.Context, email, name, code string) error {
	s.logger.Info("verification email",
		slog.String("email", email),
		slog.String("subject", fmt.Sprintf("ArkWatch - Your verification code: %s", code)),
	)
	return nil
}

// SendWelcome logs the onboarding welcome email.
func (s *LogSender) SendWelcome(ctx context.Context, email, name string) error {
	s.logger.Info("welcome email",
		slog.String("email", email),
		slog.String("subject", fmt.Sprintf("Welcome %s! Get started with ArkWatch", name)),
	)
	return nil
}
