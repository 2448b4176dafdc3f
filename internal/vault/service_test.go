package vault

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhruvprajapati002/PassGuard/internal/crypto"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	key, err := crypto.DeriveKey("test-encryption-key")
	require.NoError(t, err)
	cipher, err := crypto.NewCipher(key)
	require.NoError(t, err)
	store := NewMemoryStore()
	return NewService(cipher, store, log.New(io.Discard, "", 0)), store
}

func TestAddEntryValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID().Hex()

	cases := []struct {
		name string
		in   Input
	}{
		{"missing service", Input{UsernameOrEmail: "a@b.com", Password: "pw"}},
		{"blank service", Input{Service: "   ", UsernameOrEmail: "a@b.com", Password: "pw"}},
		{"missing usernameOrEmail", Input{Service: "github", Password: "pw"}},
		{"missing password", Input{Service: "github", UsernameOrEmail: "a@b.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddEntry(ctx, owner, tc.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAddAndListRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID().Hex()

	rec, err := svc.AddEntry(ctx, owner, Input{
		Service:         "github",
		UsernameOrEmail: "dev@example.com",
		Password:        "hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, owner, rec.OwnerID)
	assert.NotEqual(t, "hunter2", rec.Password, "stored password must be ciphertext")
	assert.NotEmpty(t, rec.IV)

	entries, err := svc.ListEntries(ctx, owner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, rec.ID, entries[0].ID)
	assert.Equal(t, "github", entries[0].Service)
	assert.Equal(t, "dev@example.com", entries[0].UsernameOrEmail)
	assert.Equal(t, "hunter2", entries[0].Password)
}

func TestListEntriesIsOwnerScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := primitive.NewObjectID().Hex()
	bob := primitive.NewObjectID().Hex()

	_, err := svc.AddEntry(ctx, alice, Input{Service: "github", UsernameOrEmail: "alice", Password: "a"})
	require.NoError(t, err)
	_, err = svc.AddEntry(ctx, bob, Input{Service: "gitlab", UsernameOrEmail: "bob", Password: "b"})
	require.NoError(t, err)

	entries, err := svc.ListEntries(ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "github", entries[0].Service)
}

func TestListEntriesSkipsCorruptRecords(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID().Hex()

	for _, s := range []string{"one", "two", "three"} {
		_, err := svc.AddEntry(ctx, owner, Input{Service: s, UsernameOrEmail: "u", Password: "pw-" + s})
		require.NoError(t, err)
	}
	// Record written before IVs were stored per entry.
	store.put(Record{
		ID:              primitive.NewObjectID().Hex(),
		OwnerID:         owner,
		Service:         "legacy",
		UsernameOrEmail: "u",
		Password:        "deadbeef",
	})
	// Record whose ciphertext is not valid hex.
	store.put(Record{
		ID:              primitive.NewObjectID().Hex(),
		OwnerID:         owner,
		Service:         "mangled",
		UsernameOrEmail: "u",
		Password:        "zz-not-hex",
		IV:              "00000000000000000000000000000000",
	})

	entries, err := svc.ListEntries(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.NotEqual(t, "legacy", e.Service)
		assert.NotEqual(t, "mangled", e.Service)
	}
}

func TestListEntriesReturnsEmptySliceNotNil(t *testing.T) {
	svc, _ := newTestService(t)
	entries, err := svc.ListEntries(context.Background(), primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestUpdateEntryReplacesAllFieldsWithFreshIV(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID().Hex()

	rec, err := svc.AddEntry(ctx, owner, Input{Service: "github", UsernameOrEmail: "old", Password: "oldpw"})
	require.NoError(t, err)

	updated, err := svc.UpdateEntry(ctx, rec.ID, owner, Input{
		Service:         "gitlab",
		UsernameOrEmail: "new",
		Password:        "newpw",
	})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, "gitlab", updated.Service)
	assert.Equal(t, "new", updated.UsernameOrEmail)
	assert.NotEqual(t, rec.Password, updated.Password)
	assert.NotEqual(t, rec.IV, updated.IV, "update must re-encrypt under a fresh iv")

	entries, err := svc.ListEntries(ctx, owner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "newpw", entries[0].Password)
}

func TestUpdateEntryWrongOwnerIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID().Hex()
	intruder := primitive.NewObjectID().Hex()

	rec, err := svc.AddEntry(ctx, owner, Input{Service: "github", UsernameOrEmail: "u", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.UpdateEntry(ctx, rec.ID, intruder, Input{Service: "x", UsernameOrEmail: "y", Password: "z"})
	assert.ErrorIs(t, err, ErrNotFound)

	// The record is untouched.
	entries, err := svc.ListEntries(ctx, owner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pw", entries[0].Password)
}

func TestDeleteEntry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID().Hex()
	intruder := primitive.NewObjectID().Hex()

	rec, err := svc.AddEntry(ctx, owner, Input{Service: "github", UsernameOrEmail: "u", Password: "pw"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteEntry(ctx, rec.ID, intruder), ErrNotFound)

	require.NoError(t, svc.DeleteEntry(ctx, rec.ID, owner))
	assert.ErrorIs(t, svc.DeleteEntry(ctx, rec.ID, owner), ErrNotFound)

	entries, err := svc.ListEntries(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
