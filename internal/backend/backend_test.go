package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendType(t *testing.T) {
	assert.True(t, SQLiteBackend.IsValid())
	assert.True(t, MemoryBackend.IsValid())
	assert.False(t, BackendType("sheets").IsValid())
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	c, err := FromAppConfig(&config.Config{DataBackend: "memory", LedgerKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: MemoryBackend, LedgerKey: "k"}, c)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.ErrorContains(t, err, "invalid backend type")

	_, err = FromAppConfig(&config.Config{DataBackend: "sqlite"})
	assert.ErrorContains(t, err, "path is required")
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, LedgerKey: "mem"})
		require.NoError(t, err)
		defer res.Cleanup()
		assert.Nil(t, res.Ready)
		assert.Equal(t, "mem", res.Store.Key())

		l, err := res.Store.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, l.Transactions, 8)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db", "fintrack.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		require.NoError(t, err)
		require.NotNil(t, res.Ready)
		assert.NoError(t, res.Ready(ctx))

		_, err = res.Store.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, res.Cleanup())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := f.CreateBackend(ctx, Config{Type: "nope"})
		assert.Error(t, err)
	})
}

func TestCreateMirror(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())

	m, err := f.CreateMirror(ctx, MirrorConfig{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, m)

	want := memory.New()
	m, err = f.CreateMirror(ctx, MirrorConfig{Sheets: func(context.Context) (sheets.Mirror, error) { return want, nil }})
	require.NoError(t, err)
	assert.Same(t, want, m)

	_, err = f.CreateMirror(ctx, MirrorConfig{Sheets: func(context.Context) (sheets.Mirror, error) {
		return nil, errors.New("no credentials")
	}})
	assert.ErrorContains(t, err, "no credentials")
}

func TestMirrorFromAppConfig(t *testing.T) {
	mc, err := MirrorFromAppConfig(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, mc.Sheets)

	_, err = MirrorFromAppConfig(&config.Config{GoogleSpreadsheetID: "sheet", GoogleSheetName: "Transactions"})
	assert.Error(t, err, "credentials are required")

	mc, err = MirrorFromAppConfig(&config.Config{
		GoogleSpreadsheetID:      "sheet",
		GoogleSheetName:          "Transactions",
		GoogleServiceAccountJSON: "{}",
	})
	require.NoError(t, err)
	assert.NotNil(t, mc.Sheets)
}
