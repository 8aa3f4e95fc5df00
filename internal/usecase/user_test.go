package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/campus-clock/internal/core/domain"
)

func newUserService(t *testing.T, repo *fakeUserRepo) *UserService {
	t.Helper()
	return NewUserService(repo, newFakeAttemptRepo(), &fakeCipher{}, zaptest.NewLogger(t))
}

func TestRegisterEncryptsAndSanitizes(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:  "  student1  ",
		Password:  "hunter2",
		Email:     "student1@example.edu",
		AutoClock: true,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Username != "student1" {
		t.Fatalf("username = %q, want trimmed", user.Username)
	}
	if user.PasswordCiphertext != "" || user.SessionCookies != nil {
		t.Fatal("returned user must carry no credential material")
	}
	if user.ID == "" {
		t.Fatal("expected an assigned identifier")
	}

	stored, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.PasswordCiphertext != reverse("hunter2") {
		t.Fatalf("stored ciphertext = %q, plaintext must not be stored", stored.PasswordCiphertext)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), RegisterInput{Password: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing username: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Username: "student1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing password: expected ErrValidation, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo(domain.User{ID: "u1", Username: "student1"})
	svc := newUserService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "student1", Password: "pw"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestGetSanitizes(t *testing.T) {
	cookies := "snapshot"
	repo := newFakeUserRepo(domain.User{
		ID:                 "u1",
		Username:           "student1",
		PasswordCiphertext: "blob",
		SessionCookies:     &cookies,
	})
	svc := newUserService(t, repo)

	user, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if user.PasswordCiphertext != "" || user.SessionCookies != nil {
		t.Fatal("Get must strip credential material")
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())

	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdatePasswordReEncrypts(t *testing.T) {
	repo := newFakeUserRepo(domain.User{ID: "u1", Username: "student1", PasswordCiphertext: reverse("old")})
	svc := newUserService(t, repo)

	if err := svc.UpdatePassword(context.Background(), "u1", "new-password"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), "u1")
	if stored.PasswordCiphertext != reverse("new-password") {
		t.Fatalf("stored ciphertext = %q, want re-encrypted value", stored.PasswordCiphertext)
	}
}

func TestSetAutoClock(t *testing.T) {
	repo := newFakeUserRepo(domain.User{ID: "u1", Username: "student1", AutoClock: false})
	svc := newUserService(t, repo)

	if err := svc.SetAutoClock(context.Background(), "u1", true); err != nil {
		t.Fatalf("SetAutoClock: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), "u1")
	if !stored.AutoClock {
		t.Fatal("expected auto clock flag to be set")
	}

	if err := svc.SetAutoClock(context.Background(), "ghost", true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListAttemptsUnknownUser(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())

	if _, err := svc.ListAttempts(context.Background(), "ghost", 10, 0); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
