package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/infra/logger"
)

// LogNotifier records attempt outcomes in the service log. It stands
// in when no delivery channel is configured for a deployment.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier constructs a LogNotifier instance.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

// Notify writes the terminal attempt state at a level matching the
// outcome.
func (n *LogNotifier) Notify(_ context.Context, user domain.User, attempt domain.Attempt) error {
	fields := []zap.Field{
		zap.String("attempt_id", attempt.ID),
		zap.String("user_id", user.ID),
		zap.String("username", logger.MaskUsername(user.Username)),
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.String("status", string(attempt.Status)),
		zap.String("message", attempt.Message),
	}

	if attempt.Status == domain.AttemptStatusFailed {
		n.log.Warn("check-in attempt failed", fields...)
	} else {
		n.log.Info("check-in attempt notification", fields...)
	}
	return nil
}

var _ port.Notifier = (*LogNotifier)(nil)
