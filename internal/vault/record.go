// Package vault owns the encrypted credential records: their persistence
// shape, the owner-scoped store that holds them, and the service that moves
// plaintext across the cipher boundary.
package vault

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound covers both "no such record" and "record belongs to someone
	// else". The two are deliberately indistinguishable so a caller cannot
	// probe for the existence of other users' records.
	ErrNotFound = errors.New("vault: record not found")

	// ErrValidation marks a missing or empty required field on add or update.
	ErrValidation = errors.New("vault: invalid entry")

	// ErrCorrupt marks a stored record whose ciphertext/iv pair is incomplete.
	ErrCorrupt = errors.New("vault: corrupt record")
)

// Record is one stored credential entry. Password holds hex ciphertext and IV
// the hex-encoded 16-byte initialization vector it was produced with; the two
// are always written together, and a record missing either is corrupt.
// OwnerID is immutable after creation.
type Record struct {
	ID              string    `json:"_id"`
	OwnerID         string    `json:"user"`
	Service         string    `json:"service"`
	UsernameOrEmail string    `json:"usernameOrEmail"`
	Password        string    `json:"password"`
	IV              string    `json:"iv"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Entry is the decrypted view of a Record returned to its owner.
type Entry struct {
	ID              string    `json:"_id"`
	Service         string    `json:"service"`
	UsernameOrEmail string    `json:"usernameOrEmail"`
	Password        string    `json:"password"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Fields is the replaceable portion of a record. Updates swap all four
// values in one atomic operation; there is no partial-field update.
type Fields struct {
	Service         string
	UsernameOrEmail string
	Password        string // hex ciphertext
	IV              string // hex iv
}

// Store is the owner-scoped CRUD surface over records. Every operation that
// touches an existing record filters on (id, ownerID) in a single call; a
// wrong owner yields ErrNotFound, never a different error.
type Store interface {
	Create(ctx context.Context, ownerID string, f Fields) (*Record, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Record, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*Record, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, f Fields) (*Record, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
}
