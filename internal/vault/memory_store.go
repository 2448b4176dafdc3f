package vault

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used by tests and the offline check
// command. It hands out the same hex ObjectIDs the Mongo store does so
// callers cannot tell the two apart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record // id -> record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Create(_ context.Context, ownerID string, f Fields) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec := Record{
		ID:              primitive.NewObjectID().Hex(),
		OwnerID:         ownerID,
		Service:         f.Service,
		UsernameOrEmail: f.UsernameOrEmail,
		Password:        f.Password,
		IV:              f.IV,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.records[rec.ID] = rec
	out := rec
	return &out, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindByIDAndOwner(_ context.Context, id, ownerID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) UpdateByIDAndOwner(_ context.Context, id, ownerID string, f Fields) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	rec.Service = f.Service
	rec.UsernameOrEmail = f.UsernameOrEmail
	rec.Password = f.Password
	rec.IV = f.IV
	rec.UpdatedAt = time.Now().UTC()
	s.records[id] = rec
	out := rec
	return &out, nil
}

func (s *MemoryStore) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// put seeds a record directly, bypassing Create. Test helper.
func (s *MemoryStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}
