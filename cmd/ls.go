package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/live-labs/confbak/internal/store"
)

func newLsCmd(stdout, stderr io.Writer) *cobra.Command {
	var environment, category string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List entries in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeClient, err := openClient(stderr)
			if err != nil {
				return err
			}
			defer closeClient()

			entries, err := client.List(cmd.Context(), store.Filters{
				Environment: environment,
				Category:    category,
			})
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No entries")
				return nil
			}
			for _, e := range entries {
				if e.Category != "" {
					fmt.Fprintf(stdout, "%s (%s) [%s]\n", e.Key, e.Environment, e.Category)
				} else {
					fmt.Fprintf(stdout, "%s (%s)\n", e.Key, e.Environment)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "", "filter by environment")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category")

	return cmd
}
