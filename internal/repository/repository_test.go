package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/entregasmx/entregas-cli/internal/repository"
	"github.com/entregasmx/entregas-cli/pkg/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.UpMigrations(db))

	return db
}

func TestSessionRepository_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(setupTestDB(t))

	got, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, repo.Set(ctx, "token", []byte("tok-1")))

	got, err = repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, []byte("tok-1"), got)

	// Upsert overwrites
	require.NoError(t, repo.Set(ctx, "token", []byte("tok-2")))

	got, err = repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, []byte("tok-2"), got)

	require.NoError(t, repo.Delete(ctx, "token"))

	got, err = repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSessionRepository_SetMany(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(setupTestDB(t))

	err := repo.SetMany(ctx, map[string][]byte{
		"user":  []byte(`{"id_usuarios":"u-1"}`),
		"token": []byte("tok-1"),
	})
	require.NoError(t, err)

	user, err := repo.Get(ctx, "user")
	require.NoError(t, err)
	require.JSONEq(t, `{"id_usuarios":"u-1"}`, string(user))

	token, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, "tok-1", string(token))
}

func TestSessionRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(setupTestDB(t))

	require.NoError(t, repo.Set(ctx, "user", []byte("{}")))
	require.NoError(t, repo.Set(ctx, "token", []byte("tok")))

	require.NoError(t, repo.Clear(ctx))

	for _, key := range []string{"user", "token"} {
		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		require.Nil(t, got)
	}
}
