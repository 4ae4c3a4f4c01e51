package favorites

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/db/store"
	"github.com/mwantia/trainmap/pkg/log"
)

func newSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()

	db, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "trainmap.db")})
	require.NoError(t, err)
	require.NoError(t, db.Connect(context.Background()))
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestToggleAndReload(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)
	logger := log.NewLoggerService("test", config.LogServerConfig{Level: "fatal", NoTerminal: true})

	st := state.NewStore(nil, state.StoreOptions{})
	svc := NewService(logger, st, db)

	on, err := svc.Toggle(ctx, 4)
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, svc.Set(ctx, 9, true))

	ids, err := db.ListFavorites(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{4, 9}, ids)

	on, err = svc.Toggle(ctx, 4)
	require.NoError(t, err)
	assert.False(t, on)

	fresh := state.NewStore(nil, state.StoreOptions{})
	require.NoError(t, NewService(logger, fresh, db).Load(ctx))
	assert.Equal(t, map[int]bool{9: true}, fresh.Snapshot().Favorites)
}
