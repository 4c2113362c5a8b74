package notify

import (
	"context"

	"github.com/skillsenselab/auth-service/logger"
)

// Log is a notifier for local development that writes the email it would
// have sent to the log instead of delivering it. The reset token itself is
// never logged, only its destination.
type Log struct {
	cfg Config
	log *logger.Logger
}

// NewLog creates a log-only notifier.
func NewLog(cfg Config, log *logger.Logger) *Log {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Log{cfg: cfg, log: log.WithComponent("notify")}
}

func (l *Log) SendPasswordReset(_ context.Context, email, name, _ string) error {
	l.log.Info("password reset email suppressed (log backend)", logger.Fields(
		logger.FieldEmail, email,
		"name", name,
	))
	return nil
}

func (l *Log) SendWelcome(_ context.Context, email, name string) error {
	l.log.Info("welcome email suppressed (log backend)", logger.Fields(
		logger.FieldEmail, email,
		"name", name,
	))
	return nil
}
