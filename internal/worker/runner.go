package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/usecase"
)

// Config sizes the runner loops.
type Config struct {
	// DailyAt is the local wall time, HH:MM, when dispatch runs.
	DailyAt string
	// Location resolves DailyAt. Defaults to time.Local.
	Location *time.Location
	// PollInterval is the delay between queue polls.
	PollInterval time.Duration
	// PollBatchSize caps attempts pulled per poll.
	PollBatchSize int
	// Workers is the number of concurrent attempt executors.
	Workers int
}

func (c *Config) normalize() {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.PollBatchSize <= 0 {
		c.PollBatchSize = 32
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Runner owns the two background loops: the daily dispatcher and the
// queue pollers feeding the executor pool.
type Runner struct {
	cfg      Config
	schedule *usecase.ScheduleService
	clock    *usecase.ClockService
	queue    port.AttemptQueue
	log      *zap.Logger
	now      func() time.Time
}

// New constructs a Runner. DailyAt must parse as HH:MM.
func New(cfg Config, schedule *usecase.ScheduleService, clock *usecase.ClockService, queue port.AttemptQueue, log *zap.Logger) (*Runner, error) {
	cfg.normalize()
	if _, err := time.Parse("15:04", cfg.DailyAt); err != nil {
		return nil, fmt.Errorf("parse daily_at %q: %w", cfg.DailyAt, err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Runner{
		cfg:      cfg,
		schedule: schedule,
		clock:    clock,
		queue:    queue,
		log:      log,
		now:      time.Now,
	}, nil
}

// Run blocks until ctx is cancelled, then drains in-flight executions.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup

	jobs := make(chan string)

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.dispatchLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		r.pollLoop(ctx, jobs)
	}()

	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.executeLoop(jobs)
		}()
	}

	wg.Wait()
}

// dispatchLoop fires DispatchDaily once per day at the configured wall
// time.
func (r *Runner) dispatchLoop(ctx context.Context) {
	for {
		next := r.nextDispatch(r.now())
		r.log.Info("next daily dispatch", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := r.schedule.DispatchDaily(ctx); err != nil {
			r.log.Error("daily dispatch failed", zap.Error(err))
		}
	}
}

// nextDispatch returns the next occurrence of DailyAt in the configured
// timezone, strictly after now.
func (r *Runner) nextDispatch(now time.Time) time.Time {
	at, _ := time.Parse("15:04", r.cfg.DailyAt)

	local := now.In(r.cfg.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), at.Hour(), at.Minute(), 0, 0, r.cfg.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// pollLoop pulls due attempts off the queue and hands them to the
// executor pool.
func (r *Runner) pollLoop(ctx context.Context, jobs chan<- string) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ids, err := r.queue.PopDue(ctx, r.now(), r.cfg.PollBatchSize)
		if err != nil {
			r.log.Error("poll attempt queue failed", zap.Error(err))
			continue
		}

		for i, id := range ids {
			select {
			case <-ctx.Done():
				r.requeue(ids[i:])
				return
			case jobs <- id:
			}
		}
	}
}

// requeue puts popped but undelivered attempts back on the queue so a
// later poll picks them up again. Runs on a detached context because
// the loop context is already cancelled at this point.
func (r *Runner) requeue(ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, id := range ids {
		if err := r.queue.Enqueue(ctx, id, r.now()); err != nil {
			r.log.Error("requeue undelivered attempt failed",
				zap.String("attempt_id", id),
				zap.Error(err),
			)
			continue
		}
		r.log.Warn("requeued undelivered attempt", zap.String("attempt_id", id))
	}
}

// executeLoop runs attempts until the jobs channel closes. Executions
// get a fresh detached context so an in-flight portal exchange can
// finish during shutdown.
func (r *Runner) executeLoop(jobs <-chan string) {
	for id := range jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := r.clock.Execute(ctx, id); err != nil {
			r.log.Error("execute attempt failed",
				zap.String("attempt_id", id),
				zap.Error(err),
			)
		}
		cancel()
	}
}
