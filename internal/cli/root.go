package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the mailroom command tree.
func NewRootCmd() *cobra.Command {
	env := &environment{}

	rootCmd := &cobra.Command{
		Use:           "mailroom",
		Short:         "mailroom reads, sends and tidies mail across IMAP/SMTP accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return env.close()
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (or set "+configEnvVar+")")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newConfigCmd(env),
		newAccountsCmd(env),
		newFoldersCmd(env),
		newFetchCmd(env),
		newShowCmd(env),
		newDeleteCmd(env),
		newSendCmd(env),
		newWatchCmd(env),
		newServeCmd(env),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newConfigCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), env.summary())
			return nil
		},
	}
}
