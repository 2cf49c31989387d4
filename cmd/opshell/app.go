package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arthur-debert/opshell/pkg/opshell"
	"github.com/arthur-debert/opshell/pkg/opshell/assistant"
	"github.com/arthur-debert/opshell/pkg/opshell/config"
	"github.com/arthur-debert/opshell/pkg/opshell/container"
	"github.com/arthur-debert/opshell/pkg/opshell/shell"
	"github.com/arthur-debert/opshell/pkg/opshell/store"
	"github.com/arthur-debert/opshell/pkg/opshell/templates"
)

// app holds what every command needs. It is filled in by setup before a
// command runs and released by close after it returns.
type app struct {
	fs         afero.Fs
	getenv     func(string) string
	isTerminal func() bool
	rand       func() float64
	dial       func(ctx context.Context, apiKey string) (assistant.Generator, io.Closer, error)

	// flags
	configPath string
	dataDir    string
	logLevel   string
	verbose    int

	cfg      config.Config
	logger   zerolog.Logger
	store    *store.Store
	registry *templates.Registry
	service  assistant.Service
	closers  []io.Closer
}

func newApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		getenv: os.Getenv,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
		dial: func(ctx context.Context, apiKey string) (assistant.Generator, io.Closer, error) {
			client, err := assistant.Dial(ctx, apiKey)
			if err != nil {
				return nil, nil, err
			}
			return client, client, nil
		},
		logger: zerolog.Nop(),
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.store != nil {
		return nil
	}

	sources := []config.Source{{Path: config.DefaultPath(), Optional: true}}
	if a.configPath != "" {
		sources = []config.Source{{Path: a.configPath}}
	}
	cfg, err := config.NewLoader(a.fs, sources, config.WithGetenv(a.getenv)).Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}

	level, err := opshell.LogLevelFromString(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if a.verbose > 0 {
		level = opshell.VerbosityLevel(a.verbose)
	}

	registry, err := templates.Default()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = opshell.NewLogger(cmd.ErrOrStderr(), level)
	a.registry = registry
	a.store = store.New(a.fs, cfg.DataDir, store.WithLogger(opshell.Component(a.logger, "store")))

	a.logger.Debug().
		Str("data_dir", cfg.DataDir).
		Str("model", cfg.Model).
		Bool("api_key", cfg.APIKey != "").
		Msg("configuration loaded")
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// assistantService returns the model-backed assistant when an API key is
// configured and the canned one otherwise. The connection is made on first
// use.
func (a *app) assistantService(ctx context.Context) (assistant.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	if a.cfg.APIKey == "" {
		a.service = assistant.Unconfigured{}
		return a.service, nil
	}

	gen, closer, err := a.dial(ctx, a.cfg.APIKey)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closer)
	a.service = assistant.NewGemini(gen,
		assistant.WithModel(a.cfg.Model),
		assistant.WithLogger(opshell.Component(a.logger, "assistant")),
	)
	return a.service, nil
}

func (a *app) load(ref string) (*container.Container, error) {
	id, err := a.store.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return a.store.Load(id)
}

// newShell opens a shell on c that saves the container after every change.
func (a *app) newShell(ctx context.Context, c *container.Container) (*shell.Shell, error) {
	svc, err := a.assistantService(ctx)
	if err != nil {
		return nil, err
	}
	logger := opshell.Component(a.logger, "shell").With().Str("container", c.ID).Logger()

	current := c
	onChange := func(st shell.State) {
		current = current.WithState(st)
		if err := a.store.Save(current); err != nil {
			logger.Error().Err(err).Msg("failed to save container")
		}
	}
	return shell.New(c.State(),
		shell.WithAssistant(svc),
		shell.WithLogger(logger),
		shell.WithOnChange(onChange),
	), nil
}
