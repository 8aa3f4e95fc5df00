package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/repository"
)

var attemptColumns = []string{
	"id",
	"user_id",
	"status",
	"scheduled_at",
	"executed_at",
	"message",
	"created_at",
	"updated_at",
}

// AttemptRepository implements port.AttemptRepository using PostgreSQL.
type AttemptRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAttemptRepository constructs a repository backed by any executor
// satisfying pgExecutor.
func NewAttemptRepository(exec pgExecutor) *AttemptRepository {
	repo := &AttemptRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AttemptRepository) WithTx(tx pgx.Tx) *AttemptRepository {
	if tx == nil {
		return r
	}
	return &AttemptRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new attempt row.
func (r *AttemptRepository) Create(ctx context.Context, attempt domain.Attempt) error {
	status := attempt.Status
	if status == "" {
		status = domain.AttemptStatusPending
	}

	query := r.builder.Insert("clock.attempts").
		Columns(
			"id",
			"user_id",
			"status",
			"scheduled_at",
			"executed_at",
			"message",
		).
		Values(
			attempt.ID,
			attempt.UserID,
			status,
			attempt.ScheduledAt,
			attempt.ExecutedAt,
			attempt.Message,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert attempt sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	return nil
}

// GetByID retrieves an attempt by identifier.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*domain.Attempt, error) {
	stmt, args, err := r.builder.
		Select(attemptColumns...).
		From("clock.attempts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select attempt sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	attempt, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan attempt: %w", err)
	}

	return attempt, nil
}

// ListByUser returns a user's attempts, most recently scheduled first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Attempt, error) {
	query := r.builder.
		Select(attemptColumns...).
		From("clock.attempts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("scheduled_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list attempts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, *attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	return attempts, nil
}

// Finish performs the single pending-to-terminal transition. The
// status guard makes duplicate executions of one attempt harmless.
func (r *AttemptRepository) Finish(ctx context.Context, id string, status domain.AttemptStatus, message string, executedAt time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("finish attempt: %q is not a terminal status", status)
	}

	stmt, args, err := r.builder.Update("clock.attempts").
		Set("status", status).
		Set("message", message).
		Set("executed_at", executedAt.UTC()).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.AttemptStatusPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build finish attempt sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("finish attempt: %w", err)
	}

	if ct.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrAlreadyFinished
	}

	return nil
}

func scanAttempt(row pgx.Row) (*domain.Attempt, error) {
	var (
		attempt    domain.Attempt
		executedAt *time.Time
	)

	if err := row.Scan(
		&attempt.ID,
		&attempt.UserID,
		&attempt.Status,
		&attempt.ScheduledAt,
		&executedAt,
		&attempt.Message,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	); err != nil {
		return nil, err
	}

	attempt.ExecutedAt = executedAt
	return &attempt, nil
}

var _ port.AttemptRepository = (*AttemptRepository)(nil)
