package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/live-labs/confbak/internal/backup"
	"github.com/live-labs/confbak/internal/crypto"
	"github.com/live-labs/confbak/internal/store"
)

func newExportCmd(stdout, stderr io.Writer) *cobra.Command {
	var environment, category, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries into a password-sealed backup artifact",
		Long: `Export snapshots the entries matching the filters and seals them with
a backup password. The artifact is a single printable string, safe for
files and clipboards, and can be restored on any instance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeClient, err := openClient(stderr)
			if err != nil {
				return err
			}
			defer closeClient()

			password, err := backupPassword(stderr, true)
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)

			exporter := &backup.Exporter{Client: client}
			filters := store.Filters{Environment: environment, Category: category}

			transport, err := exporter.Export(cmd.Context(), filters, password)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				fmt.Fprintln(stdout, transport)
				return nil
			}
			if err := os.WriteFile(output, []byte(transport+"\n"), 0600); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			fmt.Fprintf(stderr, "Backup written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "", "only export entries in this environment")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only export entries in this category")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the artifact to a file instead of stdout")

	return cmd
}
