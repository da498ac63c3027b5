package session

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *models.Session {
	return &models.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		User: models.User{
			ID:       "u-1",
			Email:    "a@b.c",
			Metadata: map[string]any{"full_name": "Ann"},
		},
	}
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_EmptyLoadReturnsNilNil(t *testing.T) {
	s := openStore(t)
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_SaveLoadClear(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSession()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "u-1", got.User.ID)
	assert.Equal(t, "Ann", got.User.Metadata["full_name"])
	assert.True(t, got.ExpiresAt.Equal(sampleSession().ExpiresAt))

	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// clearing twice is fine
	require.NoError(t, s.Clear(ctx))
}

func TestSQLiteStore_SaveNilClears(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSession()))
	require.NoError(t, s.Save(ctx, nil))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleSession()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "refresh", got.RefreshToken)
}

func TestSQLiteStore_CorruptValue(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.repo.Set(ctx, sessionKey, []byte("{not json")))

	_, err := s.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode stored session")
}

func TestSQLiteStore_ClosedDBErrors(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get metadata[session]")

	err = s.Save(ctx, sampleSession())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set metadata[session]")

	err = s.Clear(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete metadata[session]")
}

func TestOpenSQLite_MigrationError(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate session db")
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Save(ctx, sampleSession()))
	got, _ = m.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.User.ID)

	require.NoError(t, m.Clear(ctx))
	got, _ = m.Load(ctx)
	assert.Nil(t, got)
}

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*MemoryStore)(nil)
