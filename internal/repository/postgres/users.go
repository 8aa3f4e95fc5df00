package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/repository"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id",
	"username",
	"password_ciphertext",
	"email",
	"auto_clock",
	"session_cookies",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor
// satisfying pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	repo := &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	query := r.builder.Insert("clock.users").
		Columns(
			"id",
			"username",
			"password_ciphertext",
			"email",
			"auto_clock",
			"session_cookies",
		).
		Values(
			user.ID,
			user.Username,
			user.PasswordCiphertext,
			user.Email,
			user.AutoClock,
			user.SessionCookies,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by portal username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getWhere(ctx, squirrel.Eq{"username": username})
}

func (r *UserRepository) getWhere(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("clock.users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return user, nil
}

// List returns all registered users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.listWhere(ctx, nil)
}

// ListAutoClock returns the users opted into daily scheduling.
func (r *UserRepository) ListAutoClock(ctx context.Context) ([]domain.User, error) {
	return r.listWhere(ctx, squirrel.Eq{"auto_clock": true})
}

func (r *UserRepository) listWhere(ctx context.Context, pred any) ([]domain.User, error) {
	query := r.builder.
		Select(userColumns...).
		From("clock.users").
		OrderBy("created_at ASC")

	if pred != nil {
		query = query.Where(pred)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// SetAutoClock toggles the daily scheduling opt-in flag.
func (r *UserRepository) SetAutoClock(ctx context.Context, id string, autoClock bool) error {
	return r.update(ctx, id, map[string]any{"auto_clock": autoClock})
}

// UpdatePassword overwrites the stored portal password ciphertext.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, ciphertext string) error {
	return r.update(ctx, id, map[string]any{"password_ciphertext": ciphertext})
}

// UpdateSessionCookies overwrites the stored cookie snapshot. Last
// writer wins; snapshots are never merged.
func (r *UserRepository) UpdateSessionCookies(ctx context.Context, id string, cookies string) error {
	return r.update(ctx, id, map[string]any{"session_cookies": cookies})
}

func (r *UserRepository) update(ctx context.Context, id string, sets map[string]any) error {
	query := r.builder.Update("clock.users").
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id})

	for column, value := range sets {
		query = query.Set(column, value)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes the user; attempts cascade with the row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("clock.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user    domain.User
		cookies sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordCiphertext,
		&user.Email,
		&user.AutoClock,
		&cookies,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if cookies.Valid {
		val := cookies.String
		user.SessionCookies = &val
	}

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
