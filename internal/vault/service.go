package vault

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dhruvprajapati002/PassGuard/internal/crypto"
)

// Input carries the plaintext fields of an entry across the API boundary.
// The password is encrypted before it reaches any Store.
type Input struct {
	Service         string
	UsernameOrEmail string
	Password        string
}

// Service sits between the HTTP handlers and a Store. Plaintext passwords
// exist only inside its methods: everything below it carries ciphertext,
// everything above it carries decrypted entries scoped to one owner.
type Service struct {
	cipher *crypto.Cipher
	store  Store
	logger *log.Logger
}

func NewService(cipher *crypto.Cipher, store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{cipher: cipher, store: store, logger: logger}
}

func validateInput(in Input) error {
	switch {
	case strings.TrimSpace(in.Service) == "":
		return fmt.Errorf("%w: service is required", ErrValidation)
	case strings.TrimSpace(in.UsernameOrEmail) == "":
		return fmt.Errorf("%w: usernameOrEmail is required", ErrValidation)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

func (s *Service) encrypt(in Input) (Fields, error) {
	ct, iv, err := s.cipher.Encrypt(in.Password)
	if err != nil {
		return Fields{}, err
	}
	return Fields{
		Service:         in.Service,
		UsernameOrEmail: in.UsernameOrEmail,
		Password:        ct,
		IV:              iv,
	}, nil
}

func (s *Service) decryptRecord(rec *Record) (Entry, error) {
	if rec.Password == "" || rec.IV == "" {
		return Entry{}, fmt.Errorf("%w: record %s is missing ciphertext or iv", ErrCorrupt, rec.ID)
	}
	plain, err := s.cipher.Decrypt(rec.Password, rec.IV)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:              rec.ID,
		Service:         rec.Service,
		UsernameOrEmail: rec.UsernameOrEmail,
		Password:        plain,
		CreatedAt:       rec.CreatedAt,
	}, nil
}

// AddEntry encrypts the password under a fresh IV and stores the record.
func (s *Service) AddEntry(ctx context.Context, ownerID string, in Input) (*Record, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	fields, err := s.encrypt(in)
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, ownerID, fields)
}

// ListEntries returns the owner's decrypted entries. A record that cannot be
// decrypted is logged and skipped rather than failing the whole listing, so
// one corrupt row never locks a user out of the rest of their vault. The
// result is never nil.
func (s *Service) ListEntries(ctx context.Context, ownerID string) ([]Entry, error) {
	recs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(recs))
	for i := range recs {
		entry, err := s.decryptRecord(&recs[i])
		if err != nil {
			s.logger.Printf("skipping vault record %s: %v", recs[i].ID, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// UpdateEntry replaces all stored fields of the record, re-encrypting the
// password under a fresh IV. The old IV is never reused.
func (s *Service) UpdateEntry(ctx context.Context, id, ownerID string, in Input) (*Record, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	fields, err := s.encrypt(in)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateByIDAndOwner(ctx, id, ownerID, fields)
}

func (s *Service) DeleteEntry(ctx context.Context, id, ownerID string) error {
	return s.store.DeleteByIDAndOwner(ctx, id, ownerID)
}
