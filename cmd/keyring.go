package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/live-labs/confbak/internal/crypto"
	"github.com/live-labs/confbak/internal/keyring"
)

func newKeyringCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Manage the store user key in the OS keyring",
	}
	cmd.AddCommand(newKeyringSaveCmd(stdout, stderr))
	cmd.AddCommand(newKeyringStatusCmd(stdout, stderr))
	cmd.AddCommand(newKeyringDeleteCmd(stdout, stderr))
	return cmd
}

// keyringAccount is the keyring account name for the current target:
// the server URL, or the vault path when --vault is set.
func keyringAccount() (string, error) {
	if vaultPath != "" {
		return "vault:" + vaultPath, nil
	}
	server := configServerURL()
	if server == "" {
		return "", fmt.Errorf("no server configured (use --server, the config file, or CONFBAK_SERVER_URL)")
	}
	return server, nil
}

func newKeyringSaveCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the user key to the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := keyringAccount()
			if err != nil {
				return err
			}

			userKey, err := readSecret(stderr, "Enter user key: ")
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(userKey)

			if err := keyring.SaveUserKey(account, string(userKey)); err != nil {
				return fmt.Errorf("failed to save to keyring: %w", err)
			}
			fmt.Fprintln(stdout, "User key saved to keyring")
			return nil
		},
	}
}

func newKeyringStatusCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether a user key is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := keyringAccount()
			if err != nil {
				return err
			}
			if keyring.HasUserKey(account) {
				fmt.Fprintln(stdout, "User key: stored in keyring")
			} else {
				fmt.Fprintln(stdout, "User key: not stored")
			}
			return nil
		},
	}
}

func newKeyringDeleteCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the user key from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := keyringAccount()
			if err != nil {
				return err
			}
			if err := keyring.DeleteUserKey(account); err != nil {
				fmt.Fprintln(stdout, "No user key stored in keyring")
				return nil
			}
			fmt.Fprintln(stdout, "User key removed from keyring")
			return nil
		},
	}
}
