package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User is a verified account. ID is the store-assigned ObjectID hex; it is
// what ends up in JWT subjects and in vault records' owner field.
type User struct {
	ID        string
	Name      string
	Email     string
	PassHash  string // argon2id encoded string
	CreatedAt time.Time
}

type UserStore interface {
	FindByEmail(email string) (*User, error)
	FindByID(id string) (*User, error)
	Add(u *User) (*User, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUserStore backs tests and the offline ctl check.
type MemoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]*User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    map[string]*User{},
		byEmail: map[string]*User{},
	}
}

func (s *MemoryUserStore) Add(u *User) (*User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(u.Email)
	if email == "" {
		return nil, errors.New("email required")
	}
	if _, exists := s.byEmail[email]; exists {
		return nil, ErrUserExists
	}
	clone := *u
	clone.Email = email
	clone.ID = primitive.NewObjectID().Hex()
	clone.CreatedAt = time.Now().UTC()
	s.byID[clone.ID] = &clone
	s.byEmail[email] = &clone
	out := clone
	return &out, nil
}

func (s *MemoryUserStore) FindByEmail(email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byEmail[normalizeEmail(email)]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) FindByID(id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, ErrUserNotFound
}
