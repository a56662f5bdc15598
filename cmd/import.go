package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/live-labs/confbak/internal/backup"
	"github.com/live-labs/confbak/internal/crypto"
)

func newImportCmd(stdout, stderr io.Writer) *cobra.Command {
	var overwrite bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a backup artifact into the store",
		Long: `Import decodes a backup artifact and applies every entry to the store.
Without --overwrite, entries that already exist are left untouched, so
repeating an import is safe. Entries are applied independently: a single
failing entry never aborts the rest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, err := readArtifact(args[0])
			if err != nil {
				return err
			}

			client, closeClient, err := openClient(stderr)
			if err != nil {
				return err
			}
			defer closeClient()

			password, err := backupPassword(stderr, false)
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)

			if concurrency <= 0 {
				concurrency = viper.GetInt("import.concurrency")
			}
			importer := &backup.Importer{
				Client:      client,
				Concurrency: concurrency,
				Logger:      slog.Default(),
			}

			result, err := importer.Import(cmd.Context(), transport, password, overwrite)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Imported: %d\nSkipped:  %d\nFailed:   %d\n",
				result.Imported, result.Skipped, len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(stderr, "  %s (%s): %s\n", e.Key, e.Environment, e.Err)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d entries failed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "update entries that already exist")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max entries applied at once (default from config)")

	return cmd
}
