package auth

import (
	"errors"
	"sync"
	"time"
)

var ErrPendingNotFound = errors.New("pending signup not found")

// PendingTTL is how long an unverified signup lives before it expires; the
// Mongo store enforces it with a TTL index, and the verify handler checks it
// explicitly as well since TTL deletion is not instantaneous.
const PendingTTL = 5 * time.Minute

// MaxOTPAttempts caps failed code submissions per pending signup.
const MaxOTPAttempts = 3

// PendingUser is an account waiting for email verification. The password is
// already hashed; only the OTP state is mutable.
type PendingUser struct {
	Name        string
	Email       string
	PassHash    string
	OTP         string
	Attempts    int
	LastOTPSent time.Time
	CreatedAt   time.Time
}

type PendingStore interface {
	// Upsert creates or replaces the pending signup for its email, resetting
	// the attempt counter and the expiry clock.
	Upsert(p *PendingUser) error
	FindByEmail(email string) (*PendingUser, error)
	// RefreshOTP installs a new code on an existing pending signup and resets
	// the expiry clock and attempt counter.
	RefreshOTP(email, code string) error
	// RecordAttempt bumps the failed-attempt counter and returns the new value.
	RecordAttempt(email string) (int, error)
	Delete(email string) error
}

// MemoryPendingStore backs tests. It does not expire entries; tests drive
// expiry through CreatedAt.
type MemoryPendingStore struct {
	mu      sync.Mutex
	byEmail map[string]*PendingUser
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{byEmail: map[string]*PendingUser{}}
}

func (s *MemoryPendingStore) Upsert(p *PendingUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	clone.Email = normalizeEmail(p.Email)
	clone.Attempts = 0
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	if clone.LastOTPSent.IsZero() {
		clone.LastOTPSent = clone.CreatedAt
	}
	s.byEmail[clone.Email] = &clone
	return nil
}

func (s *MemoryPendingStore) FindByEmail(email string) (*PendingUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byEmail[normalizeEmail(email)]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, ErrPendingNotFound
}

func (s *MemoryPendingStore) RefreshOTP(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return ErrPendingNotFound
	}
	now := time.Now().UTC()
	p.OTP = code
	p.Attempts = 0
	p.LastOTPSent = now
	p.CreatedAt = now
	return nil
}

func (s *MemoryPendingStore) RecordAttempt(email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return 0, ErrPendingNotFound
	}
	p.Attempts++
	return p.Attempts, nil
}

func (s *MemoryPendingStore) Delete(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byEmail, normalizeEmail(email))
	return nil
}
