// Package cmd implements the confbak command-line interface.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	serverURL string
	vaultPath string
	verbose   bool
)

// NewRootCmd returns the root cobra command for the confbak CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confbak",
		Short: "Encrypted backup export and import for configuration stores",
		Long: `confbak exports configuration entries from a remote configuration
server (or a local vault file) into a password-sealed portable artifact,
and reconciles such artifacts back into a live store.

Backups are authenticated: a wrong password or a tampered artifact is
detected before anything touches the store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.confbak/config.yaml)")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "configuration server URL")
	cmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "use a local vault file instead of a server")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newExportCmd(stdout, stderr))
	cmd.AddCommand(newImportCmd(stdout, stderr))
	cmd.AddCommand(newPreviewCmd(stdout, stderr))
	cmd.AddCommand(newLsCmd(stdout, stderr))
	cmd.AddCommand(newStatusCmd(stdout, stderr))
	cmd.AddCommand(newKeyringCmd(stdout, stderr))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

func init() {
	cobra.OnInitialize(initConfig)
}

// ExecuteContext runs the CLI with the process stdio and returns the exit
// code. The context cancels in-flight store calls on SIGINT/SIGTERM.
func ExecuteContext(ctx context.Context) int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME/.confbak")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CONFBAK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.timeout", "30s")
	viper.SetDefault("import.concurrency", 8)

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// configServerURL resolves the server URL from the flag, then config.
func configServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	return viper.GetString("server.url")
}

func configTimeout() time.Duration {
	d := viper.GetDuration("server.timeout")
	if d <= 0 {
		d = 30 * time.Second
	}
	return d
}
