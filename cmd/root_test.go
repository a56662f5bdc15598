package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/live-labs/confbak/internal/store"
)

func runConfbak(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootHelp(t *testing.T) {
	stdout, _, err := runConfbak(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "export")
	assert.Contains(t, stdout, "import")
	assert.Contains(t, stdout, "preview")
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := runConfbak(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "confbak")
}

func TestExportImportRoundTripViaVault(t *testing.T) {
	t.Setenv("CONFBAK_USER_KEY", "test-user-key")
	t.Setenv("CONFBAK_BACKUP_PASSWORD", "test-backup-pw")

	dir := t.TempDir()
	src := filepath.Join(dir, "src.vault")
	dst := filepath.Join(dir, "dst.vault")
	artifact := filepath.Join(dir, "backup.txt")

	// Seed the source vault directly.
	vault, err := store.OpenVault(src, []byte("test-user-key"))
	require.NoError(t, err)
	_, err = vault.Create(context.Background(), store.Entry{
		Key: "db", Value: map[string]any{"host": "localhost"}, Environment: "production", Category: "database",
	})
	require.NoError(t, err)
	_, err = vault.Create(context.Background(), store.Entry{
		Key: "token", Value: "secret", Environment: "staging",
	})
	require.NoError(t, err)
	require.NoError(t, vault.Close())

	_, _, err = runConfbak(t, "--vault", src, "export", "--output", artifact)
	require.NoError(t, err)

	stdout, _, err := runConfbak(t, "--vault", dst, "import", artifact)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported: 2")

	// Importing again without --overwrite skips everything.
	stdout, _, err = runConfbak(t, "--vault", dst, "import", artifact)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported: 0")
	assert.Contains(t, stdout, "Skipped:  2")

	stdout, _, err = runConfbak(t, "--vault", dst, "ls")
	require.NoError(t, err)
	assert.Contains(t, stdout, "db (production) [database]")
	assert.Contains(t, stdout, "token (staging)")
}

func TestExportEnvironmentFilter(t *testing.T) {
	t.Setenv("CONFBAK_USER_KEY", "test-user-key")
	t.Setenv("CONFBAK_BACKUP_PASSWORD", "test-backup-pw")

	dir := t.TempDir()
	src := filepath.Join(dir, "src.vault")
	dst := filepath.Join(dir, "dst.vault")

	vault, err := store.OpenVault(src, []byte("test-user-key"))
	require.NoError(t, err)
	for _, e := range []store.Entry{
		{Key: "db", Value: "p", Environment: "production"},
		{Key: "db", Value: "s", Environment: "staging"},
	} {
		_, err = vault.Create(context.Background(), e)
		require.NoError(t, err)
	}
	require.NoError(t, vault.Close())

	stdout, _, err := runConfbak(t, "--vault", src, "export", "--environment", "production")
	require.NoError(t, err)
	artifact := strings.TrimSpace(stdout)
	require.NotEmpty(t, artifact)

	backupFile := filepath.Join(dir, "backup.txt")
	require.NoError(t, os.WriteFile(backupFile, []byte(artifact), 0600))

	stdout, _, err = runConfbak(t, "--vault", dst, "import", backupFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported: 1")

	stdout, _, err = runConfbak(t, "--vault", dst, "ls")
	require.NoError(t, err)
	assert.Contains(t, stdout, "db (production)")
	assert.NotContains(t, stdout, "staging")
}

func TestImportWrongPasswordFails(t *testing.T) {
	t.Setenv("CONFBAK_USER_KEY", "test-user-key")

	dir := t.TempDir()
	src := filepath.Join(dir, "src.vault")
	artifact := filepath.Join(dir, "backup.txt")

	vault, err := store.OpenVault(src, []byte("test-user-key"))
	require.NoError(t, err)
	_, err = vault.Create(context.Background(), store.Entry{Key: "db", Value: "v", Environment: "production"})
	require.NoError(t, err)
	require.NoError(t, vault.Close())

	t.Setenv("CONFBAK_BACKUP_PASSWORD", "right")
	_, _, err = runConfbak(t, "--vault", src, "export", "--output", artifact)
	require.NoError(t, err)

	t.Setenv("CONFBAK_BACKUP_PASSWORD", "wrong")
	_, _, err = runConfbak(t, "--vault", src, "import", artifact)
	require.Error(t, err)
	assert.ErrorContains(t, err, "authentication failed")
}
