package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/live-labs/confbak/internal/crypto"
	"github.com/live-labs/confbak/internal/keyring"
	"github.com/live-labs/confbak/internal/store"
)

// openClient builds the configured store client: a local vault when
// --vault is set, otherwise the HTTP client for the configured server.
// The returned closer releases vault resources; for HTTP it is a no-op.
func openClient(stderr io.Writer) (store.Client, func() error, error) {
	if vaultPath != "" {
		userKey, err := resolveUserKey(stderr, "vault:"+vaultPath)
		if err != nil {
			return nil, nil, err
		}
		defer crypto.ClearBytes(userKey)

		vault, err := store.OpenVault(vaultPath, userKey)
		if err != nil {
			return nil, nil, err
		}
		return vault, vault.Close, nil
	}

	server := configServerURL()
	if server == "" {
		return nil, nil, fmt.Errorf("no server configured (use --server, the config file, or CONFBAK_SERVER_URL)")
	}

	userKey, err := resolveUserKey(stderr, server)
	if err != nil {
		return nil, nil, err
	}
	defer crypto.ClearBytes(userKey)

	client := store.NewHTTP(server, string(userKey), configTimeout())
	return client, func() error { return nil }, nil
}

// resolveUserKey finds the store user key: environment variable first,
// then the OS keyring, then an interactive prompt.
func resolveUserKey(stderr io.Writer, account string) ([]byte, error) {
	if key := os.Getenv("CONFBAK_USER_KEY"); key != "" {
		return []byte(key), nil
	}

	if key, err := keyring.GetUserKey(account); err == nil && key != "" {
		return []byte(key), nil
	}

	return readSecret(stderr, "Enter user key: ")
}

// backupPassword resolves the backup password. With confirm set (export),
// an interactive prompt asks twice; the environment variable is never
// confirmed.
func backupPassword(stderr io.Writer, confirm bool) ([]byte, error) {
	if pw := os.Getenv("CONFBAK_BACKUP_PASSWORD"); pw != "" {
		return []byte(pw), nil
	}

	password, err := readSecret(stderr, "Enter backup password: ")
	if err != nil {
		return nil, err
	}
	if !confirm {
		return password, nil
	}
	defer crypto.ClearBytes(password)

	again, err := readSecret(stderr, "Confirm backup password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(again)

	if string(password) != string(again) {
		return nil, fmt.Errorf("passwords do not match")
	}

	out := make([]byte, len(password))
	copy(out, password)
	return out, nil
}

// readSecret reads a secret from the terminal without echoing
func readSecret(stderr io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return secret, nil
}

// readArtifact loads the transport artifact from a file, or stdin for "-".
func readArtifact(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read backup: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
