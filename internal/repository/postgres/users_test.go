package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/repository"
)

func newUserMock(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewUserRepository(mock)
}

func TestUserRepositoryCreate(t *testing.T) {
	mock, repo := newUserMock(t)

	user := domain.User{
		ID:                 "u1",
		Username:           "student1",
		PasswordCiphertext: "blob",
		Email:              "student1@example.edu",
		AutoClock:          true,
	}

	mock.ExpectExec(`INSERT INTO clock\.users`).
		WithArgs("u1", "student1", "blob", "student1@example.edu", true, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryCreateDuplicateUsername(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectExec(`INSERT INTO clock\.users`).
		WithArgs("u1", "student1", "blob", "", false, (*string)(nil)).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(context.Background(), domain.User{ID: "u1", Username: "student1", PasswordCiphertext: "blob"})
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUserRepositoryGetByUsername(t *testing.T) {
	mock, repo := newUserMock(t)

	createdAt := time.Now().UTC()
	cookies := `{"origin":[{"name":"CASTGC","value":"tgt"}]}`

	rows := pgxmock.NewRows(userColumns).AddRow(
		"u1", "student1", "blob", "student1@example.edu", true, cookies, createdAt, createdAt,
	)

	mock.ExpectQuery(`SELECT .+ FROM clock\.users WHERE username = \$1 LIMIT 1`).
		WithArgs("student1").
		WillReturnRows(rows)

	user, err := repo.GetByUsername(context.Background(), "student1")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if !user.HasSession() {
		t.Fatal("expected stored cookie snapshot to surface")
	}
	if *user.SessionCookies != cookies {
		t.Fatalf("cookies = %q, want %q", *user.SessionCookies, cookies)
	}
}

func TestUserRepositoryGetByIDNotFound(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectQuery(`SELECT .+ FROM clock\.users WHERE id = \$1 LIMIT 1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryListAutoClock(t *testing.T) {
	mock, repo := newUserMock(t)

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows(userColumns).
		AddRow("u1", "student1", "blob", "", true, nil, createdAt, createdAt).
		AddRow("u2", "student2", "blob", "", true, nil, createdAt, createdAt)

	mock.ExpectQuery(`SELECT .+ FROM clock\.users .*WHERE auto_clock = \$1`).
		WithArgs(true).
		WillReturnRows(rows)

	users, err := repo.ListAutoClock(context.Background())
	if err != nil {
		t.Fatalf("ListAutoClock: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
}

func TestUserRepositoryUpdateSessionCookies(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectExec(`UPDATE clock\.users SET`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateSessionCookies(context.Background(), "u1", "snapshot"); err != nil {
		t.Fatalf("UpdateSessionCookies: %v", err)
	}
}

func TestUserRepositorySetAutoClockNotFound(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectExec(`UPDATE clock\.users SET`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SetAutoClock(context.Background(), "ghost", true); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryDelete(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectExec(`DELETE FROM clock\.users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
