package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()

	db, err := NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAccountLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.Write.CreateAccount(ctx, CreateAccountParams{
		ID:           uuid.NewString(),
		Username:     "wanderer",
		Email:        "wanderer@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	got, err := db.Read.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "wanderer", got.Username)
	require.False(t, got.IsAdmin)
	require.False(t, got.IsBanned)

	byName, err := db.Read.FindAccountByUsername(ctx, "wanderer")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)

	require.NoError(t, db.Write.UpdateLastLogin(ctx, created.ID))

	_, err = db.Read.GetAccount(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = db.Read.FindAccountByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUsernameUnique(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.Write.CreateAccount(ctx, CreateAccountParams{
		ID: uuid.NewString(), Username: "wanderer", Email: "a@example.com", PasswordHash: "hash",
	})
	require.NoError(t, err)

	_, err = db.Write.CreateAccount(ctx, CreateAccountParams{
		ID: uuid.NewString(), Username: "wanderer", Email: "b@example.com", PasswordHash: "hash",
	})
	require.Error(t, err)
}

func TestCharacterQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	account, err := db.Write.CreateAccount(ctx, CreateAccountParams{
		ID: uuid.NewString(), Username: "wanderer", Email: "w@example.com", PasswordHash: "hash",
	})
	require.NoError(t, err)

	character, err := db.Write.CreateCharacter(ctx, CreateCharacterParams{
		ID:         uuid.NewString(),
		AccountID:  account.ID,
		Name:       "Corvin",
		Rank:       "Aspirant",
		Allegiance: "None",
	})
	require.NoError(t, err)

	got, err := db.Read.GetCharacter(ctx, character.ID)
	require.NoError(t, err)
	require.Equal(t, "Corvin", got.Name)
	require.Equal(t, account.ID, got.AccountID)
	require.Equal(t, "Aspirant", got.Rank)
	require.Equal(t, "None", got.Allegiance)

	list, err := db.Read.ListCharacters(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = db.Read.GetCharacter(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSeed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(db.Write))

	admin, err := db.Read.FindAccountByUsername(ctx, "overseer")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)

	player, err := db.Read.FindAccountByUsername(ctx, "wanderer")
	require.NoError(t, err)
	require.False(t, player.IsAdmin)

	characters, err := db.Read.ListCharacters(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, characters, 1)
	require.Equal(t, "Corvin", characters[0].Name)
}
