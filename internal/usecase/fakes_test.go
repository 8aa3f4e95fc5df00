package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/portal"
	"github.com/arklim/campus-clock/internal/repository"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]domain.User
	cookies map[string]string

	createErr error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:   make(map[string]domain.User),
		cookies: make(map[string]string),
	}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return repository.ErrAlreadyExists
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *fakeUserRepo) ListAutoClock(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0)
	for _, user := range r.users {
		if user.AutoClock {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) SetAutoClock(_ context.Context, id string, autoClock bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.AutoClock = autoClock
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, ciphertext string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordCiphertext = ciphertext
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdateSessionCookies(_ context.Context, id, cookies string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.cookies[id] = cookies
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]domain.Attempt

	createErr error
	finishErr error
}

func newFakeAttemptRepo(attempts ...domain.Attempt) *fakeAttemptRepo {
	repo := &fakeAttemptRepo{attempts: make(map[string]domain.Attempt)}
	for _, attempt := range attempts {
		repo.attempts[attempt.ID] = attempt
	}
	return repo
}

func (r *fakeAttemptRepo) Create(_ context.Context, attempt domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if attempt.Status == "" {
		attempt.Status = domain.AttemptStatusPending
	}
	r.attempts[attempt.ID] = attempt
	return nil
}

func (r *fakeAttemptRepo) GetByID(_ context.Context, id string) (*domain.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &attempt, nil
}

func (r *fakeAttemptRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempts := make([]domain.Attempt, 0)
	for _, attempt := range r.attempts {
		if attempt.UserID == userID {
			attempts = append(attempts, attempt)
		}
	}
	return attempts, nil
}

func (r *fakeAttemptRepo) Finish(_ context.Context, id string, status domain.AttemptStatus, message string, executedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finishErr != nil {
		return r.finishErr
	}
	attempt, ok := r.attempts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !attempt.Finish(status, message, executedAt) {
		return repository.ErrAlreadyFinished
	}
	r.attempts[id] = attempt
	return nil
}

type queueEntry struct {
	attemptID string
	due       time.Time
}

type fakeQueue struct {
	mu      sync.Mutex
	entries []queueEntry

	enqueueErr error
}

func (q *fakeQueue) Enqueue(_ context.Context, attemptID string, due time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.entries = append(q.entries, queueEntry{attemptID: attemptID, due: due})
	return nil
}

func (q *fakeQueue) PopDue(_ context.Context, now time.Time, limit int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, 0)
	remaining := q.entries[:0]
	for _, entry := range q.entries {
		if len(ids) < limit && !entry.due.After(now) {
			ids = append(ids, entry.attemptID)
			continue
		}
		remaining = append(remaining, entry)
	}
	q.entries = remaining
	return ids, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	scheduled []domain.AttemptScheduledEvent
	finished  []domain.AttemptFinishedEvent

	err error
}

func (p *fakePublisher) PublishAttemptScheduled(_ context.Context, event domain.AttemptScheduledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.scheduled = append(p.scheduled, event)
	return nil
}

func (p *fakePublisher) PublishAttemptFinished(_ context.Context, event domain.AttemptFinishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.finished = append(p.finished, event)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []domain.Attempt

	err error
}

func (n *fakeNotifier) Notify(_ context.Context, _ domain.User, attempt domain.Attempt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, attempt)
	return nil
}

// fakeCipher reverses the string instead of encrypting it, so tests
// can assert both directions without key material.
type fakeCipher struct {
	decryptErr error
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func (c *fakeCipher) Encrypt(plaintext string) (string, error) {
	return reverse(plaintext), nil
}

func (c *fakeCipher) Decrypt(ciphertext string) (string, error) {
	if c.decryptErr != nil {
		return "", c.decryptErr
	}
	return reverse(ciphertext), nil
}

type fakeSession struct {
	loginErr error
	clockErr error

	loginCalls int
	clockCalls int
}

func (s *fakeSession) Login(context.Context) error {
	s.loginCalls++
	return s.loginErr
}

func (s *fakeSession) Clock(context.Context) error {
	s.clockCalls++
	return s.clockErr
}

type sessionRecorder struct {
	session  *fakeSession
	err      error
	password string
	persist  portal.PersistFunc
	calls    int
}

func (r *sessionRecorder) factory() SessionFactory {
	return func(_ domain.User, password string, persist portal.PersistFunc) (PortalSession, error) {
		r.calls++
		r.password = password
		r.persist = persist
		if r.err != nil {
			return nil, r.err
		}
		return r.session, nil
	}
}
