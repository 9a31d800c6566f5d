// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pr-report",
		Short: "A CLI tool to summarise recent pull request activity of a GitHub repository.",
		Long: `pr-report fetches every pull request of a GitHub repository, keeps the ones
created within the last N days and prints them grouped as opened, closed and merged.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	// Add a persistent flag for debug output, available to all commands.
	root.PersistentFlags().Bool("debug", false, "Enable debug logging on standard error")
	root.AddCommand(newReportCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
