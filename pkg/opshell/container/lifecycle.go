package container

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// Step is one scripted lifecycle command.
type Step struct {
	Name          string
	Command       string
	Duration      time.Duration
	SuccessChance float64
	// Requires is the status the container must be in to start the step.
	Requires Status
	// Running is the status while the step is in flight.
	Running Status
	// Next is the status after a successful run.
	Next Status
}

var (
	StepInstall = Step{
		Name: "install", Command: "npm install",
		Duration: 3 * time.Second, SuccessChance: 0.90,
		Requires: StatusInitialized, Running: StatusInstalling, Next: StatusSuccess,
	}
	StepBuild = Step{
		Name: "build", Command: "npm run build",
		Duration: 4 * time.Second, SuccessChance: 0.85,
		Requires: StatusSuccess, Running: StatusBuilding, Next: StatusSuccess,
	}
	StepStart = Step{
		Name: "start", Command: "npm start",
		Duration: 2 * time.Second, SuccessChance: 0.95,
		Requires: StatusSuccess, Running: StatusBuilding, Next: StatusRunning,
	}
)

// Steps lists the lifecycle steps in the order an operator runs them.
var Steps = []Step{StepInstall, StepBuild, StepStart}

// StepByName finds a step by its short name or its full command.
func StepByName(name string) (Step, bool) {
	for _, s := range Steps {
		if s.Name == name || s.Command == name {
			return s, true
		}
	}
	return Step{}, false
}

// BuildMessage is recorded when a build succeeds.
const BuildMessage = "Build successful. Output generated in /dist directory."

// FailureMessage is recorded when a step fails.
func FailureMessage(command string) string {
	return fmt.Sprintf("Simulated error during %s. Check logs for details.", command)
}

// TransitionError reports a step started from the wrong status.
type TransitionError struct {
	ID     string
	Step   string
	Status Status
	Want   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("container %s: cannot %s while %s (requires %s)", e.ID, e.Step, e.Status, e.Want)
}

// BuildOutput is the tree a successful build leaves under /dist.
func BuildOutput() *vfs.Dir {
	return vfs.NewDir("dist",
		vfs.NewFile("index.html", "<!-- Production Build -->"),
		vfs.NewDir("assets",
			vfs.NewFile("index.js", "/* Minified JS */"),
			vfs.NewFile("index.css", "/* Minified CSS */"),
		),
	)
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRand sets the source of the success roll, a value in [0, 1)
func WithRand(fn func() float64) RunnerOption {
	return func(r *Runner) {
		r.rand = fn
	}
}

// WithSpeed scales every step duration. Zero finishes steps immediately.
func WithSpeed(speed float64) RunnerOption {
	return func(r *Runner) {
		if speed >= 0 {
			r.speed = speed
		}
	}
}

// WithClock sets the time source for history entries
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// WithLogger sets the runner logger
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner plays lifecycle steps against containers. It never changes the
// container it is given; every transition produces a new one.
type Runner struct {
	rand   func() float64
	speed  float64
	now    func() time.Time
	logger zerolog.Logger
}

// NewRunner creates a runner with real timing and randomness.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		rand:   rand.Float64,
		speed:  1,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin checks the guard of step and returns c in the step's running status
// with an unfinished command entry appended.
func (r *Runner) Begin(c *Container, step Step) (*Container, error) {
	if c.Status != step.Requires {
		return nil, &TransitionError{ID: c.ID, Step: step.Name, Status: c.Status, Want: step.Requires}
	}
	out := c.Clone()
	out.Status = step.Running
	out.History = append(out.History, HandoverEntry{
		Action:  ActionCommand,
		By:      c.Operator,
		At:      r.now().UTC(),
		Details: Details{Command: step.Command},
	})
	return out, nil
}

// Finish completes the unfinished command entry of a begun step.
func (r *Runner) Finish(c *Container, step Step, success bool) *Container {
	out := c.Clone()
	details := Details{Command: step.Command}
	if success {
		details.Status = OutcomeSuccess
		out.Status = step.Next
		if step.Name == StepBuild.Name {
			out.Filesystem = vfs.AddChild(out.Filesystem, vfs.Separator, BuildOutput())
			details.Message = BuildMessage
		}
	} else {
		details.Status = OutcomeFailure
		details.Message = FailureMessage(step.Command)
		out.Status = StatusError
	}

	if n := len(out.History); n > 0 && out.History[n-1].Pending() {
		out.History[n-1].Details = details
	} else {
		out.History = append(out.History, HandoverEntry{
			Action: ActionCommand, By: c.Operator, At: r.now().UTC(), Details: details,
		})
	}
	return out
}

// Run plays step against c. onBegin, when set, receives the container in its
// running status before the simulated work starts, so callers can persist
// it. A cancelled ctx ends the step as a failure; the failed container is
// returned together with the context error.
func (r *Runner) Run(ctx context.Context, c *Container, step Step, onBegin func(*Container)) (*Container, error) {
	begun, err := r.Begin(c, step)
	if err != nil {
		return nil, err
	}
	if onBegin != nil {
		onBegin(begun)
	}

	r.logger.Info().
		Str("container", c.ID).
		Str("command", step.Command).
		Msg("step started")

	if err := r.wait(ctx, step.Duration); err != nil {
		r.logger.Warn().Err(err).Str("container", c.ID).Str("command", step.Command).Msg("step interrupted")
		return r.Finish(begun, step, false), err
	}

	success := r.rand() < step.SuccessChance
	done := r.Finish(begun, step, success)
	r.logger.Info().
		Str("container", c.ID).
		Str("command", step.Command).
		Str("status", string(done.Status)).
		Msg("step finished")
	return done, nil
}

func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * r.speed)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
