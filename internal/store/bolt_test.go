package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestVault(t *testing.T, userKey string) *Vault {
	t.Helper()
	v, err := OpenVault(filepath.Join(t.TempDir(), "test.vault"), []byte(userKey))
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func TestVaultCreateReadUpdateDelete(t *testing.T) {
	ctx := context.Background()
	v := openTestVault(t, "user-key")

	created, err := v.Create(ctx, Entry{
		Key:         "database",
		Value:       map[string]any{"host": "localhost", "port": float64(5432)},
		Environment: "production",
		Category:    "db",
	})
	require.NoError(t, err)
	require.NotNil(t, created.CreatedAt)

	// Duplicate (key, environment) is rejected
	_, err = v.Create(ctx, Entry{Key: "database", Value: "x", Environment: "production"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Same key in another environment is a distinct entry
	_, err = v.Create(ctx, Entry{Key: "database", Value: "y", Environment: "staging"})
	require.NoError(t, err)

	got, err := v.Read(ctx, "database", "production")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"host": "localhost", "port": float64(5432)}, got.Value)

	_, err = v.Update(ctx, Entry{Key: "database", Value: "v2", Environment: "production"})
	require.NoError(t, err)
	got, err = v.Read(ctx, "database", "production")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Value)
	assert.Equal(t, created.CreatedAt.Unix(), got.CreatedAt.Unix())

	_, err = v.Update(ctx, Entry{Key: "missing", Value: "x", Environment: "production"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, v.Delete(ctx, "database", "production"))
	_, err = v.Read(ctx, "database", "production")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, v.Delete(ctx, "database", "production"), ErrNotFound)
}

func TestVaultListFilters(t *testing.T) {
	ctx := context.Background()
	v := openTestVault(t, "user-key")

	seed := []Entry{
		{Key: "db", Value: "a", Environment: "production", Category: "database"},
		{Key: "db", Value: "b", Environment: "staging", Category: "database"},
		{Key: "token", Value: "c", Environment: "production", Category: "auth"},
	}
	for _, e := range seed {
		_, err := v.Create(ctx, e)
		require.NoError(t, err)
	}

	all, err := v.List(ctx, Filters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	prod, err := v.List(ctx, Filters{Environment: "production"})
	require.NoError(t, err)
	require.Len(t, prod, 2)
	for _, e := range prod {
		assert.Equal(t, "production", e.Environment)
	}

	db, err := v.List(ctx, Filters{Category: "database"})
	require.NoError(t, err)
	assert.Len(t, db, 2)

	both, err := v.List(ctx, Filters{Environment: "staging", Category: "database"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "db", both[0].Key)
}

func TestVaultExists(t *testing.T) {
	ctx := context.Background()
	v := openTestVault(t, "user-key")

	ok, err := v.Exists(ctx, "db", "production")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = v.Create(ctx, Entry{Key: "db", Value: "a", Environment: "production"})
	require.NoError(t, err)

	ok, err = v.Exists(ctx, "db", "production")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Exists(ctx, "db", "staging")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVaultWrongUserKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vault")

	v, err := OpenVault(path, []byte("right"))
	require.NoError(t, err)
	_, err = v.Create(context.Background(), Entry{Key: "db", Value: "a", Environment: "production"})
	require.NoError(t, err)
	require.NoError(t, v.Close())

	_, err = OpenVault(path, []byte("wrong"))
	assert.ErrorIs(t, err, ErrWrongUserKey)

	// Correct key still works after the failed attempt
	v, err = OpenVault(path, []byte("right"))
	require.NoError(t, err)
	defer v.Close()
	got, err := v.Read(context.Background(), "db", "production")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Value)
}

func TestVaultClusterDistribution(t *testing.T) {
	ctx := context.Background()
	v := openTestVault(t, "user-key")

	_, err := v.Create(ctx, Entry{Key: "db", Value: "a", Environment: "production"})
	require.NoError(t, err)

	d, err := v.ClusterDistribution(ctx)
	require.NoError(t, err)
	assert.False(t, d.Enabled)
	assert.Equal(t, 1, d.TotalKeys)
	require.Len(t, d.Nodes, 1)
	assert.Equal(t, "local", d.Nodes[0].NodeID)
}
