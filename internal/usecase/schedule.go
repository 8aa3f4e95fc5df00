package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/infra/logger"
	"github.com/arklim/campus-clock/internal/repository"
)

// ScheduleService creates pending attempts and enqueues their delayed
// execution.
type ScheduleService struct {
	users    port.UserRepository
	attempts port.AttemptRepository
	queue    port.AttemptQueue
	events   port.EventPublisher
	log      *zap.Logger
	now      func() time.Time
	jitter   func() time.Duration
}

// NewScheduleService constructs a ScheduleService instance.
func NewScheduleService(users port.UserRepository, attempts port.AttemptRepository, queue port.AttemptQueue, events port.EventPublisher, log *zap.Logger) *ScheduleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleService{
		users:    users,
		attempts: attempts,
		queue:    queue,
		events:   events,
		log:      log,
		now:      time.Now,
		jitter:   defaultJitter,
	}
}

// WithClock overrides the time source.
func (s *ScheduleService) WithClock(now func() time.Time) *ScheduleService {
	s.now = now
	return s
}

// WithJitter overrides the per-user delay source.
func (s *ScheduleService) WithJitter(jitter func() time.Duration) *ScheduleService {
	s.jitter = jitter
	return s
}

// defaultJitter returns a uniform random delay of 0..120 whole minutes
// plus 0..60 whole seconds, so attempts spread out instead of hitting
// the portal in one burst.
func defaultJitter() time.Duration {
	minutes := time.Duration(rand.IntN(121)) * time.Minute
	seconds := time.Duration(rand.IntN(61)) * time.Second
	return minutes + seconds
}

// DispatchDaily creates one jittered pending attempt for every opted-in
// user. A failure for one user is logged and does not block the rest.
// Returns the number of attempts scheduled.
func (s *ScheduleService) DispatchDaily(ctx context.Context) (int, error) {
	users, err := s.users.ListAutoClock(ctx)
	if err != nil {
		return 0, fmt.Errorf("list auto clock users: %w", err)
	}

	scheduled := 0
	for _, user := range users {
		attempt, err := s.schedule(ctx, user.ID, s.now().Add(s.jitter()))
		if err != nil {
			s.log.Error("schedule attempt failed",
				zap.String("user_id", user.ID),
				zap.String("username", logger.MaskUsername(user.Username)),
				zap.Error(err),
			)
			continue
		}

		scheduled++
		s.log.Info("attempt scheduled",
			zap.String("attempt_id", attempt.ID),
			zap.String("user_id", user.ID),
			zap.Time("scheduled_at", attempt.ScheduledAt),
		)
	}

	s.log.Info("daily dispatch complete",
		zap.Int("users", len(users)),
		zap.Int("scheduled", scheduled),
	)

	return scheduled, nil
}

// ScheduleNow creates an attempt due immediately for one user,
// regardless of the auto clock flag. Used by the manual trigger.
func (s *ScheduleService) ScheduleNow(ctx context.Context, userID string) (*domain.Attempt, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return s.schedule(ctx, userID, s.now())
}

func (s *ScheduleService) schedule(ctx context.Context, userID string, due time.Time) (*domain.Attempt, error) {
	attempt := domain.Attempt{
		ID:          newID(),
		UserID:      userID,
		Status:      domain.AttemptStatusPending,
		ScheduledAt: due.UTC(),
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	if err := s.queue.Enqueue(ctx, attempt.ID, attempt.ScheduledAt); err != nil {
		return nil, fmt.Errorf("enqueue attempt: %w", err)
	}

	if err := s.events.PublishAttemptScheduled(ctx, domain.AttemptScheduledEvent{
		AttemptID:   attempt.ID,
		UserID:      attempt.UserID,
		ScheduledAt: attempt.ScheduledAt,
	}); err != nil {
		s.log.Warn("publish attempt scheduled event failed",
			zap.String("attempt_id", attempt.ID),
			zap.Error(err),
		)
	}

	return &attempt, nil
}
