package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/infra/logger"
	"github.com/arklim/campus-clock/internal/portal"
	"github.com/arklim/campus-clock/internal/repository"
)

// PortalSession is the per-attempt view of the portal client.
type PortalSession interface {
	Login(ctx context.Context) error
	Clock(ctx context.Context) error
}

// SessionFactory builds an authenticated portal session for one user.
// The persist hook receives refreshed cookie snapshots.
type SessionFactory func(user domain.User, password string, persist portal.PersistFunc) (PortalSession, error)

// ClockService executes scheduled attempts against the portal and
// records their terminal outcome.
type ClockService struct {
	users    port.UserRepository
	attempts port.AttemptRepository
	cipher   port.CredentialCipher
	sessions SessionFactory
	notifier port.Notifier
	events   port.EventPublisher
	metrics  *AttemptMetrics
	log      *zap.Logger
	now      func() time.Time
}

// NewClockService constructs a ClockService instance.
func NewClockService(
	users port.UserRepository,
	attempts port.AttemptRepository,
	cipher port.CredentialCipher,
	sessions SessionFactory,
	notifier port.Notifier,
	events port.EventPublisher,
	metrics *AttemptMetrics,
	log *zap.Logger,
) *ClockService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClockService{
		users:    users,
		attempts: attempts,
		cipher:   cipher,
		sessions: sessions,
		notifier: notifier,
		events:   events,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *ClockService) WithClock(now func() time.Time) *ClockService {
	s.now = now
	return s
}

// Execute runs one attempt end to end: decrypt credentials, log in,
// submit the check-in form, record the terminal status and notify the
// user. Already-terminal attempts are acknowledged without side effects.
func (s *ClockService) Execute(ctx context.Context, attemptID string) error {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("attempt vanished before execution", zap.String("attempt_id", attemptID))
			return nil
		}
		return fmt.Errorf("load attempt: %w", err)
	}
	if attempt.IsTerminal() {
		s.log.Debug("attempt already terminal, skipping",
			zap.String("attempt_id", attempt.ID),
			zap.String("status", string(attempt.Status)),
		)
		return nil
	}

	user, err := s.users.GetByID(ctx, attempt.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Owner deleted after scheduling. Nothing left to do.
			s.log.Warn("attempt owner no longer exists",
				zap.String("attempt_id", attempt.ID),
				zap.String("user_id", attempt.UserID),
			)
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	status, message := s.run(ctx, *user)
	return s.finish(ctx, *user, *attempt, status, message)
}

// run performs the portal interaction and maps its result onto a
// terminal status. NotYetOpen and WindowExpired are expected portal
// states rather than faults, so they finish as skipped.
func (s *ClockService) run(ctx context.Context, user domain.User) (domain.AttemptStatus, string) {
	password, err := s.cipher.Decrypt(user.PasswordCiphertext)
	if err != nil {
		return domain.AttemptStatusFailed, fmt.Sprintf("stored credentials unreadable: %v", err)
	}

	persist := func(ctx context.Context, cookies string) error {
		return s.users.UpdateSessionCookies(ctx, user.ID, cookies)
	}

	session, err := s.sessions(user, password, persist)
	if err != nil {
		return domain.AttemptStatusFailed, fmt.Sprintf("create portal session: %v", err)
	}

	if err := session.Login(ctx); err != nil {
		return domain.AttemptStatusFailed, fmt.Sprintf("portal login: %v", err)
	}

	if err := session.Clock(ctx); err != nil {
		if portal.IsBenignOutcome(err) {
			return domain.AttemptStatusSkipped, err.Error()
		}
		return domain.AttemptStatusFailed, fmt.Sprintf("portal check-in: %v", err)
	}

	return domain.AttemptStatusSuccess, "check-in submitted and verified"
}

// finish records the terminal transition exactly once and fans out the
// event and the notification. A concurrent executor losing the
// transition race stops silently.
func (s *ClockService) finish(ctx context.Context, user domain.User, attempt domain.Attempt, status domain.AttemptStatus, message string) error {
	executedAt := s.now().UTC()

	if err := s.attempts.Finish(ctx, attempt.ID, status, message, executedAt); err != nil {
		if errors.Is(err, repository.ErrAlreadyFinished) {
			s.log.Info("attempt finished by another executor", zap.String("attempt_id", attempt.ID))
			return nil
		}
		return fmt.Errorf("finish attempt: %w", err)
	}

	s.metrics.observe(string(status))
	s.log.Info("attempt executed",
		zap.String("attempt_id", attempt.ID),
		zap.String("user_id", user.ID),
		zap.String("username", logger.MaskUsername(user.Username)),
		zap.String("status", string(status)),
		zap.String("message", message),
	)

	if err := s.events.PublishAttemptFinished(ctx, domain.AttemptFinishedEvent{
		AttemptID:  attempt.ID,
		UserID:     user.ID,
		Status:     status,
		Message:    message,
		ExecutedAt: executedAt,
	}); err != nil {
		s.log.Warn("publish attempt finished event failed",
			zap.String("attempt_id", attempt.ID),
			zap.Error(err),
		)
	}

	// Skipped means the portal had no open window. The user took no
	// action and needs none, so no notification goes out.
	if status == domain.AttemptStatusSkipped {
		return nil
	}

	finished := attempt
	finished.Finish(status, message, executedAt)
	if err := s.notifier.Notify(ctx, user, finished); err != nil {
		s.log.Warn("notify user failed",
			zap.String("attempt_id", attempt.ID),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return nil
}
