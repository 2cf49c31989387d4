// Package shell emulates a small command-line shell over a container's
// virtual filesystem.
//
// A Shell owns the container State (tree plus working directory) and a
// Transcript. Execute runs one line at a time; user mistakes come back as
// error Output, never as Go errors, and never change the state.
package shell

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// State is the filesystem a shell works on together with its working
// directory. It is replaced as one value.
type State struct {
	Root *vfs.Dir
	Cwd  string
}

// NewState returns a state positioned at the root of root.
func NewState(root *vfs.Dir) State {
	if root == nil {
		root = vfs.NewRoot()
	}
	return State{Root: root, Cwd: vfs.Separator}
}

// Assistant answers free-form questions about a container. It receives the
// prompt together with the tree and working directory the question was asked
// in.
type Assistant interface {
	Respond(ctx context.Context, prompt string, root *vfs.Dir, cwd string) (string, error)
}

// AssistantFunc adapts a function to Assistant.
type AssistantFunc func(ctx context.Context, prompt string, root *vfs.Dir, cwd string) (string, error)

// Respond implements Assistant
func (f AssistantFunc) Respond(ctx context.Context, prompt string, root *vfs.Dir, cwd string) (string, error) {
	return f(ctx, prompt, root, cwd)
}

// ErrNoAssistant is reported by the ai command when no assistant is wired.
var ErrNoAssistant = errors.New("assistant not configured")

// Option configures a Shell
type Option func(*Shell)

// WithAssistant sets the collaborator used by the ai command
func WithAssistant(a Assistant) Option {
	return func(s *Shell) {
		s.assistant = a
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithOnChange registers fn to be called with the new state after every
// command that replaced it. fn runs before Execute returns.
func WithOnChange(fn func(State)) Option {
	return func(s *Shell) {
		s.onChange = fn
	}
}

// WithTranscript makes the shell append to t instead of a fresh transcript
func WithTranscript(t *Transcript) Option {
	return func(s *Shell) {
		s.transcript = t
	}
}

// Shell interprets command lines against one container state.
type Shell struct {
	run sync.Mutex // one line in flight at a time

	mu    sync.RWMutex
	state State

	transcript *Transcript
	assistant  Assistant
	onChange   func(State)
	logger     zerolog.Logger
}

// New creates a shell over state.
func New(state State, opts ...Option) *Shell {
	if state.Root == nil {
		state.Root = vfs.NewRoot()
	}
	if state.Cwd == "" {
		state.Cwd = vfs.Separator
	}
	s := &Shell{
		state:  state,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transcript == nil {
		s.transcript = NewTranscript()
	}
	return s
}

// State returns the current state.
func (s *Shell) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Transcript returns the shell's command log.
func (s *Shell) Transcript() *Transcript {
	return s.transcript
}

// Busy reports whether a line is currently executing.
func (s *Shell) Busy() bool {
	if s.run.TryLock() {
		s.run.Unlock()
		return false
	}
	return true
}

// Execute runs one command line and returns what it printed, or nil when the
// command prints nothing. Non-nil output is appended to the transcript.
// Concurrent calls are serialised.
func (s *Shell) Execute(ctx context.Context, line string) *Output {
	s.run.Lock()
	defer s.run.Unlock()

	command, args := Tokenize(line)
	switch command {
	case "":
		return nil
	case "clear":
		s.transcript.Clear()
		return nil
	}

	before := s.State()
	s.logger.Debug().
		Str("command", command).
		Strs("args", args).
		Str("cwd", before.Cwd).
		Msg("executing")

	out, next := s.dispatch(ctx, before, command, args)

	if next != nil {
		s.mu.Lock()
		s.state = *next
		s.mu.Unlock()
		if s.onChange != nil {
			s.onChange(*next)
		}
	}

	if out != nil {
		s.transcript.Append(Record{Input: line, Cwd: before.Cwd, Output: out})
		if out.IsError() {
			s.logger.Debug().Str("command", command).Str("output", out.Text).Msg("command failed")
		}
	}
	return out
}

func (s *Shell) dispatch(ctx context.Context, st State, command string, args []string) (*Output, *State) {
	h, ok := handlers[command]
	if !ok {
		return errorf("command not found: %s", command), nil
	}
	return h(ctx, s, st, args)
}

// Tokenize splits a line on whitespace into a command and its arguments.
// There is no quoting or escaping.
func Tokenize(line string) (command string, args []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
