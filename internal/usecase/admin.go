package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/arklim/campus-clock/internal/infra/config"
	"github.com/arklim/campus-clock/internal/infra/security"
)

// ErrInvalidCredentials indicates the admin login was rejected.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminService authenticates the single management API credential.
type AdminService struct {
	cfg    config.AdminSettings
	tokens *security.TokenManager
	now    func() time.Time
}

// NewAdminService constructs an AdminService instance.
func NewAdminService(cfg config.AdminSettings, tokens *security.TokenManager) *AdminService {
	return &AdminService{cfg: cfg, tokens: tokens, now: time.Now}
}

// Login verifies the admin credential and issues a bearer token.
func (s *AdminService) Login(_ context.Context, username, password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) != 1 {
		return "", ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, s.cfg.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify admin password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(username, s.now())
	if err != nil {
		return "", fmt.Errorf("issue admin token: %w", err)
	}
	return token, nil
}

// Verify validates a bearer token and returns its subject.
func (s *AdminService) Verify(tokenString string) (string, error) {
	return s.tokens.Verify(tokenString)
}
