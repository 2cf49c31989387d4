package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/opshell/pkg/opshell/shell"
	"github.com/arthur-debert/opshell/pkg/opshell/tui"
)

func newExecCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [id] [command...]",
		Short: "Run one shell command in a container",
		Long: `Run one shell command in a container and print its output. Changes to
the filesystem and working directory are saved. Flags after the id are
passed to the shell unchanged.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(args[0])
			if err != nil {
				return err
			}
			sh, err := a.newShell(cmd.Context(), c)
			if err != nil {
				return err
			}
			out := sh.Execute(cmd.Context(), strings.Join(args[1:], " "))
			switch {
			case out == nil:
			case out.IsError():
				fmt.Fprintln(cmd.ErrOrStderr(), out.String())
			default:
				fmt.Fprintln(cmd.OutOrStdout(), out.String())
			}
			return nil
		},
	}

	// everything after the id belongs to the shell line
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell [id]",
		Short: "Open a shell in a container",
		Long: `Open an interactive shell in a container. On a terminal this is a full
screen view with the file tree beside the transcript; otherwise lines are
read from standard input until "exit" or end of input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(args[0])
			if err != nil {
				return err
			}
			sh, err := a.newShell(cmd.Context(), c)
			if err != nil {
				return err
			}

			if a.isTerminal() {
				return tui.Run(cmd.Context(), sh,
					tui.WithPrompt(c.PromptFor),
					tui.WithTitle(fmt.Sprintf("%s  %s", c.ID, c.Templates)),
				)
			}
			return runLines(cmd.Context(), sh, c.PromptFor, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runLines is the shell without a terminal: it prints a prompt, runs each
// input line and prints its output.
func runLines(ctx context.Context, sh *shell.Shell, prompt func(cwd string) string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt(sh.State().Cwd)+" ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			return nil
		}
		if o := sh.Execute(ctx, line); o != nil {
			fmt.Fprintln(out, o.String())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
