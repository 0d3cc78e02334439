package notify

import (
	"context"

	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

var _ model.Notifier = (*Log)(nil)

// Log writes passcodes to the debug log. Used when no mail server is configured.
type Log struct {
	logger *logger.Logger
}

func NewLog(logger *logger.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SendPasscode(ctx context.Context, email, code string) error {
	l.logger.DebugContext(ctx, "Notifier: passcode issued",
		"email", email,
		"code", code)
	return nil
}
