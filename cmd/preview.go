package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/live-labs/confbak/internal/backup"
	"github.com/live-labs/confbak/internal/crypto"
)

func newPreviewCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show what importing a backup would change, without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, err := readArtifact(args[0])
			if err != nil {
				return err
			}

			password, err := backupPassword(stderr, false)
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)

			plaintext, err := crypto.Open(transport, password)
			if err != nil {
				return err
			}
			var env backup.Envelope
			if err := json.Unmarshal(plaintext, &env); err != nil {
				return fmt.Errorf("%w: %v", backup.ErrInvalidFormat, err)
			}

			client, closeClient, err := openClient(stderr)
			if err != nil {
				return err
			}
			defer closeClient()

			plan, err := backup.BuildPlan(cmd.Context(), client, &env)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Backup %s (%s), %d entries\n", env.BackupID, env.Timestamp, len(env.Configs))
			fmt.Fprintf(stdout, "Create: %d, Update: %d, Unchanged: %d\n",
				len(plan.ToCreate), len(plan.ToUpdate), plan.Unchanged)

			for _, c := range plan.ToCreate {
				fmt.Fprintf(stdout, "+ %s (%s)\n", c.Key, c.Environment)
			}
			for _, c := range plan.ToUpdate {
				fmt.Fprintf(stdout, "~ %s (%s)\n%s", c.Key, c.Environment, c.Diff)
			}
			for _, c := range plan.Errors {
				fmt.Fprintf(stderr, "! %s (%s): %s\n", c.Key, c.Environment, c.Err)
			}
			return nil
		},
	}
	return cmd
}
