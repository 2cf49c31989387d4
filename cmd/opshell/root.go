package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/opshell/pkg/opshell"
)

var (
	rootApp = newApp()
	// rootCmd represents the base command when called without any subcommands
	rootCmd = newRootCommand(rootApp)
)

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opshell",
		Short: "Simulated project containers with an operator shell",
		Long: `opshell creates simulated project containers seeded from templates,
plays their install, build and start lifecycle, and opens a shell on their
in-memory filesystem with an AI assistant on hand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default is "+displayPath()+")")
	flags.StringVar(&a.dataDir, "data-dir", "", "directory containers are stored in")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.CountVarP(&a.verbose, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newNewCommand(a))
	cmd.AddCommand(newListCommand(a))
	cmd.AddCommand(newShowCommand(a))
	cmd.AddCommand(newRmCommand(a))
	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newDebugCommand(a))
	cmd.AddCommand(newTreeCommand(a))
	cmd.AddCommand(newExecCommand(a))
	cmd.AddCommand(newShellCommand(a))
	cmd.AddCommand(newExportCommand(a))
	cmd.AddCommand(newTemplatesCommand(a))
	return cmd
}

func displayPath() string {
	return "$XDG_CONFIG_HOME/opshell/config.cue"
}

// execute runs cmd and releases what the app opened.
func execute(ctx context.Context, a *app, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil {
		a.logger.Warn().Err(closeErr).Msg("shutdown")
	}
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx, rootApp, rootCmd)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  `Print the version number of opshell`,
		Run: func(cmd *cobra.Command, args []string) {
			info := opshell.BuildInfo{Version: version, Commit: commit, Date: date}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
		},
	}
}
