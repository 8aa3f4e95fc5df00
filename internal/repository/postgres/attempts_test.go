package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/repository"
)

func newAttemptMock(t *testing.T) (pgxmock.PgxPoolIface, *AttemptRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewAttemptRepository(mock)
}

func TestAttemptRepositoryCreate(t *testing.T) {
	mock, repo := newAttemptMock(t)

	scheduledAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	attempt := domain.Attempt{
		ID:          "a1",
		UserID:      "u1",
		ScheduledAt: scheduledAt,
	}

	mock.ExpectExec(`INSERT INTO clock\.attempts`).
		WithArgs("a1", "u1", domain.AttemptStatusPending, scheduledAt, (*time.Time)(nil), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), attempt); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttemptRepositoryGetByID(t *testing.T) {
	mock, repo := newAttemptMock(t)

	createdAt := time.Now().UTC()
	scheduledAt := createdAt.Add(time.Hour)

	rows := pgxmock.NewRows(attemptColumns).AddRow(
		"a1", "u1", domain.AttemptStatusPending, scheduledAt, nil, "", createdAt, createdAt,
	)

	mock.ExpectQuery(`SELECT .+ FROM clock\.attempts WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(rows)

	attempt, err := repo.GetByID(context.Background(), "a1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if attempt.Status != domain.AttemptStatusPending {
		t.Fatalf("status = %s, want pending", attempt.Status)
	}
	if attempt.ExecutedAt != nil {
		t.Fatal("pending attempt must have no execution time")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttemptRepositoryGetByIDNotFound(t *testing.T) {
	mock, repo := newAttemptMock(t)

	mock.ExpectQuery(`SELECT .+ FROM clock\.attempts`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttemptRepositoryFinish(t *testing.T) {
	mock, repo := newAttemptMock(t)

	executedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE clock\.attempts SET .+ WHERE id = \$\d+ AND status = \$\d+`).
		WithArgs(domain.AttemptStatusSuccess, "done", executedAt, pgxmock.AnyArg(), "a1", domain.AttemptStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Finish(context.Background(), "a1", domain.AttemptStatusSuccess, "done", executedAt); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttemptRepositoryFinishAlreadyFinished(t *testing.T) {
	mock, repo := newAttemptMock(t)

	executedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE clock\.attempts`).
		WithArgs(domain.AttemptStatusFailed, "late", executedAt, pgxmock.AnyArg(), "a1", domain.AttemptStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	// The guard matched nothing; the row exists in a terminal state.
	rows := pgxmock.NewRows(attemptColumns).AddRow(
		"a1", "u1", domain.AttemptStatusSuccess, executedAt, &executedAt, "done", executedAt, executedAt,
	)
	mock.ExpectQuery(`SELECT .+ FROM clock\.attempts`).
		WithArgs("a1").
		WillReturnRows(rows)

	err := repo.Finish(context.Background(), "a1", domain.AttemptStatusFailed, "late", executedAt)
	if !errors.Is(err, repository.ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
}

func TestAttemptRepositoryFinishMissingRow(t *testing.T) {
	mock, repo := newAttemptMock(t)

	executedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE clock\.attempts`).
		WithArgs(domain.AttemptStatusSuccess, "done", executedAt, pgxmock.AnyArg(), "ghost", domain.AttemptStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mock.ExpectQuery(`SELECT .+ FROM clock\.attempts`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	err := repo.Finish(context.Background(), "ghost", domain.AttemptStatusSuccess, "done", executedAt)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttemptRepositoryFinishRejectsNonTerminalStatus(t *testing.T) {
	_, repo := newAttemptMock(t)

	err := repo.Finish(context.Background(), "a1", domain.AttemptStatusPending, "", time.Now())
	if err == nil {
		t.Fatal("expected an error for a non-terminal target status")
	}
}

func TestAttemptRepositoryListByUser(t *testing.T) {
	mock, repo := newAttemptMock(t)

	createdAt := time.Now().UTC()
	executedAt := createdAt.Add(time.Minute)

	rows := pgxmock.NewRows(attemptColumns).
		AddRow("a2", "u1", domain.AttemptStatusSuccess, createdAt.Add(time.Hour), &executedAt, "done", createdAt, createdAt).
		AddRow("a1", "u1", domain.AttemptStatusFailed, createdAt, &executedAt, "portal login: failed", createdAt, createdAt)

	mock.ExpectQuery(`SELECT .+ FROM clock\.attempts WHERE user_id = \$1 ORDER BY scheduled_at DESC LIMIT 10 OFFSET 5`).
		WithArgs("u1").
		WillReturnRows(rows)

	attempts, err := repo.ListByUser(context.Background(), "u1", 10, 5)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(attempts))
	}
	if attempts[0].ID != "a2" {
		t.Fatalf("first attempt = %s, want a2 (most recently scheduled)", attempts[0].ID)
	}
}
