package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/infra/logger"
	"github.com/arklim/campus-clock/internal/repository"
)

var (
	// ErrUserNotFound indicates no user exists for the supplied identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken indicates the portal username is already registered.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrValidation indicates the input failed basic validation.
	ErrValidation = errors.New("invalid input")
)

// UserService manages portal accounts tracked by the scheduler.
type UserService struct {
	users    port.UserRepository
	attempts port.AttemptRepository
	cipher   port.CredentialCipher
	log      *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users port.UserRepository, attempts port.AttemptRepository, cipher port.CredentialCipher, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, attempts: attempts, cipher: cipher, log: log}
}

// RegisterInput carries the fields needed to register a portal account.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	AutoClock bool
}

// Register encrypts the portal password and stores a new user.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	ciphertext, err := s.cipher.Encrypt(input.Password)
	if err != nil {
		return nil, fmt.Errorf("encrypt portal password: %w", err)
	}

	user := domain.User{
		ID:                 newID(),
		Username:           username,
		PasswordCiphertext: ciphertext,
		Email:              strings.TrimSpace(input.Email),
		AutoClock:          input.AutoClock,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", logger.MaskUsername(user.Username)),
		zap.Bool("auto_clock", user.AutoClock),
	)

	return sanitizeUser(user), nil
}

// Get returns a user without credential material.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return sanitizeUser(*user), nil
}

// List returns all users without credential material.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	sanitized := make([]domain.User, 0, len(users))
	for _, user := range users {
		sanitized = append(sanitized, *sanitizeUser(user))
	}
	return sanitized, nil
}

// SetAutoClock toggles the daily scheduling opt-in flag.
func (s *UserService) SetAutoClock(ctx context.Context, id string, autoClock bool) error {
	if err := s.users.SetAutoClock(ctx, id, autoClock); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set auto clock: %w", err)
	}
	return nil
}

// UpdatePassword re-encrypts and stores a new portal password.
func (s *UserService) UpdatePassword(ctx context.Context, id, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}

	ciphertext, err := s.cipher.Encrypt(password)
	if err != nil {
		return fmt.Errorf("encrypt portal password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, id, ciphertext); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes a user; attempts cascade away with the row.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListAttempts returns a user's attempt history.
func (s *UserService) ListAttempts(ctx context.Context, userID string, limit, offset int) ([]domain.Attempt, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	attempts, err := s.attempts.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func sanitizeUser(user domain.User) *domain.User {
	user.PasswordCiphertext = ""
	user.SessionCookies = nil
	return &user
}
