package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/opshell/pkg/opshell"
	"github.com/arthur-debert/opshell/pkg/opshell/container"
	"github.com/arthur-debert/opshell/pkg/opshell/export"
	"github.com/arthur-debert/opshell/pkg/opshell/templates"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

func newNewCommand(a *app) *cobra.Command {
	var (
		base      string
		ui        []string
		datastore []string
		importDir string
	)

	cmd := &cobra.Command{
		Use:   "new [prompt...]",
		Short: "Create a container",
		Long: `Create a container seeded from templates. Templates come from --base,
--ui and --datastore when any is given; otherwise the assistant picks them
from the prompt. --import seeds the filesystem from a directory instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			sel := templates.Selection{Base: base, UI: ui, Datastore: datastore}
			if base == "" && len(ui) == 0 && len(datastore) == 0 && prompt != "" {
				sel = a.chooseTemplates(cmd, prompt)
			}
			sel = a.registry.Normalize(sel)

			var (
				root *vfs.Dir
				err  error
			)
			if importDir != "" {
				root, err = export.Import(a.fs, importDir)
			} else {
				root, err = a.registry.Seed(sel, templates.WithLogger(opshell.Component(a.logger, "templates")))
			}
			if err != nil {
				return err
			}

			c := container.New(container.Params{
				Operator:   a.cfg.Operator,
				Prompt:     prompt,
				Templates:  sel,
				Filesystem: root,
			})
			if err := a.store.Save(c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s from %s\n", c.ID, sel)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "base template (default REACT)")
	cmd.Flags().StringSliceVar(&ui, "ui", nil, "UI library overlays")
	cmd.Flags().StringSliceVar(&datastore, "datastore", nil, "datastore overlays")
	cmd.Flags().StringVar(&importDir, "import", "", "seed the filesystem from this directory")

	return cmd
}

// chooseTemplates asks the assistant for a selection and falls back to name
// matching when it fails.
func (a *app) chooseTemplates(cmd *cobra.Command, prompt string) templates.Selection {
	ctx := cmd.Context()
	svc, err := a.assistantService(ctx)
	if err == nil {
		var sel templates.Selection
		if sel, err = svc.ParseBuildPrompt(ctx, prompt, a.registry); err == nil {
			return sel
		}
	}
	a.logger.Warn().Err(err).Msg("template selection failed, matching names instead")
	return a.registry.Match(prompt)
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			containers, err := a.store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(containers) == 0 {
				fmt.Fprintln(out, "No containers.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "STATUS", "TEMPLATES", "CREATED")
			for _, c := range containers {
				t.Row(c.ID, string(c.Status), c.Templates.String(), c.CreatedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a container and its build history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(args[0])
			if err != nil {
				return err
			}
			printContainer(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printContainer(w io.Writer, c *container.Container) {
	fmt.Fprintf(w, "ID:        %s\n", c.ID)
	fmt.Fprintf(w, "Status:    %s\n", c.Status)
	fmt.Fprintf(w, "Operator:  %s\n", c.Operator)
	if c.Prompt != "" {
		fmt.Fprintf(w, "Prompt:    %s\n", c.Prompt)
	}
	fmt.Fprintf(w, "Templates: %s\n", c.Templates)
	fmt.Fprintf(w, "Created:   %s\n", c.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Path:      %s\n", c.CurrentPath)
	fmt.Fprintln(w, "History:")
	for _, e := range c.History {
		fmt.Fprintf(w, "  %s  %-8s %-8s %s\n", e.At.Local().Format(time.DateTime), e.By, e.Action, historyDetail(e))
	}
}

func historyDetail(e container.HandoverEntry) string {
	d := e.Details
	switch e.Action {
	case container.ActionCreate:
		if d.Selection != nil {
			return d.Selection.String()
		}
		return ""
	case container.ActionCommand:
		status := string(d.Status)
		if e.Pending() {
			status = "pending"
		}
		parts := []string{d.Command, status}
		if d.Message != "" {
			parts = append(parts, d.Message)
		}
		return strings.Join(parts, "  ")
	default:
		return d.Message
	}
}

func newRmCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.store.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func newRunCommand(a *app) *cobra.Command {
	var speed float64

	cmd := &cobra.Command{
		Use:   "run [id] [install|build|start]",
		Short: "Run a lifecycle step",
		Long: `Run one lifecycle step of a container: install, then build, then start.
Each step takes simulated time and may fail; a failed container can be
explained with the debug command.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"install", "build", "start"},
		RunE: func(cmd *cobra.Command, args []string) error {
			step, ok := container.StepByName(args[1])
			if !ok {
				return fmt.Errorf("unknown step %q (want install, build or start)", args[1])
			}
			c, err := a.load(args[0])
			if err != nil {
				return err
			}

			logger := opshell.Component(a.logger, "lifecycle")
			opts := []container.RunnerOption{
				container.WithSpeed(a.cfg.Build.Speed),
				container.WithLogger(logger),
			}
			if cmd.Flags().Changed("speed") {
				opts = append(opts, container.WithSpeed(speed))
			}
			if a.rand != nil {
				opts = append(opts, container.WithRand(a.rand))
			}
			runner := container.NewRunner(opts...)

			out := cmd.OutOrStdout()
			done, runErr := runner.Run(cmd.Context(), c, step, func(begun *container.Container) {
				fmt.Fprintf(out, "%s: %s\n", step.Command, begun.Status)
				if err := a.store.Save(begun); err != nil {
					logger.Error().Err(err).Msg("failed to save container")
				}
			})
			if done == nil {
				return runErr
			}
			if err := a.store.Save(done); err != nil {
				return err
			}

			fmt.Fprintf(out, "%s: %s\n", step.Command, done.Status)
			if last, ok := done.LastEntry(); ok && last.Details.Message != "" {
				fmt.Fprintln(out, last.Details.Message)
			}
			if runErr != nil {
				return runErr
			}
			if done.Status == container.StatusError {
				return errors.New(container.FailureMessage(step.Command))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1, "scale step durations, 0 finishes immediately (overrides build.speed)")

	return cmd
}

func newDebugCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug [id]",
		Short: "Ask the assistant to explain a failed step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(args[0])
			if err != nil {
				return err
			}
			if !c.CanDebug() {
				return fmt.Errorf("container %s has nothing to debug (status %s)", c.ID, c.Status)
			}
			svc, err := a.assistantService(cmd.Context())
			if err != nil {
				return err
			}
			suggestion, err := svc.DebugSuggestion(cmd.Context(), c.History)
			if err != nil {
				return fmt.Errorf("debug suggestion failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), suggestion)
			return nil
		},
	}
}

func newTreeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [id]",
		Short: "Print the file tree of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), vfs.RenderTree(c.Filesystem))
			return nil
		},
	}
}

func newExportCommand(a *app) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export [id] [dir]",
		Short: "Write the filesystem of a container to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(args[0])
			if err != nil {
				return err
			}
			stats, err := export.Export(a.fs, args[1], c.Filesystem, export.Options{Overwrite: overwrite})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d files, %d directories (%d bytes) to %s\n",
				stats.Files, stats.Dirs, stats.Bytes, args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "write into a non-empty directory")

	return cmd
}

func newTemplatesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, cat := range templates.Categories {
				fmt.Fprintf(out, "%s:\n", cat)
				for _, e := range a.registry.Entries(cat) {
					line := fmt.Sprintf("  %-14s %s", e.Name, strings.Join(e.Tags, ", "))
					if len(e.After) > 0 {
						line += " (after " + strings.Join(e.After, ", ") + ")"
					}
					fmt.Fprintln(out, strings.TrimRight(line, " "))
				}
			}
			return nil
		},
	}
}
