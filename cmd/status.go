package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check store reachability and cluster key distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeClient, err := openClient(stderr)
			if err != nil {
				return err
			}
			defer closeClient()

			if err := client.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("store unreachable: %w", err)
			}
			fmt.Fprintln(stdout, "Store: reachable")

			dist, err := client.ClusterDistribution(cmd.Context())
			if err != nil {
				fmt.Fprintf(stderr, "Cluster distribution unavailable: %s\n", err)
				return nil
			}

			if !dist.Enabled {
				fmt.Fprintf(stdout, "Cluster: disabled (%d keys)\n", dist.TotalKeys)
			} else {
				fmt.Fprintf(stdout, "Cluster: %d keys across %d nodes\n", dist.TotalKeys, len(dist.Nodes))
			}
			for _, n := range dist.Nodes {
				fmt.Fprintf(stdout, "  %s: %d keys (%s)\n", n.NodeID, n.KeyCount, n.Status)
			}
			return nil
		},
	}
	return cmd
}
