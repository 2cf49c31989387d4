// Package container models a simulated build environment: the record an
// operator creates from a template selection, its build history and the
// virtual filesystem the shell works on.
package container

import (
	"fmt"
	"slices"
	"time"

	"github.com/arthur-debert/opshell/pkg/opshell/shell"
	"github.com/arthur-debert/opshell/pkg/opshell/templates"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// DefaultOperator is recorded as the author of history entries when no
// operator is configured.
const DefaultOperator = "andoy"

// Status is the lifecycle state of a container.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusInstalling  Status = "installing"
	StatusBuilding    Status = "building"
	StatusRunning     Status = "running"
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
)

// Action classifies a history entry.
type Action string

const (
	ActionCreate     Action = "create"
	ActionCommand    Action = "command"
	ActionFeatureAdd Action = "feature-add"
	ActionError      Action = "error"
)

// Outcome is the result recorded on a finished command entry.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Details carries the payload of a history entry. Create entries embed the
// template selection; command entries carry the command and, once finished,
// its outcome.
type Details struct {
	Command string  `json:"command,omitempty"`
	Status  Outcome `json:"status,omitempty"`
	Message string  `json:"message,omitempty"`
	*templates.Selection
}

// HandoverEntry is one line of a container's build history.
type HandoverEntry struct {
	Action  Action    `json:"action"`
	By      string    `json:"by"`
	At      time.Time `json:"at"`
	Details Details   `json:"details"`
}

// Pending reports whether a command entry has not finished yet.
func (e HandoverEntry) Pending() bool {
	return e.Action == ActionCommand && e.Details.Status == ""
}

// Container is one simulated environment.
type Container struct {
	ID          string              `json:"id"`
	Operator    string              `json:"operator"`
	Prompt      string              `json:"prompt"`
	Templates   templates.Selection `json:"chosen_templates"`
	Status      Status              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	History     []HandoverEntry     `json:"history"`
	Filesystem  *vfs.Dir            `json:"filesystem"`
	CurrentPath string              `json:"currentPath"`
}

// Params describe a container to create. Zero fields take defaults.
type Params struct {
	ID         string
	Operator   string
	Prompt     string
	Templates  templates.Selection
	Filesystem *vfs.Dir
	Now        time.Time
}

// New creates an initialized container positioned at the root of its
// filesystem, with a single create entry in its history.
func New(p Params) *Container {
	if p.ID == "" {
		p.ID = RandomID()
	}
	if p.Operator == "" {
		p.Operator = DefaultOperator
	}
	if p.Filesystem == nil {
		p.Filesystem = vfs.NewRoot()
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	p.Now = p.Now.UTC()

	sel := p.Templates
	return &Container{
		ID:        p.ID,
		Operator:  p.Operator,
		Prompt:    p.Prompt,
		Templates: p.Templates,
		Status:    StatusInitialized,
		CreatedAt: p.Now,
		History: []HandoverEntry{{
			Action:  ActionCreate,
			By:      p.Operator,
			At:      p.Now,
			Details: Details{Selection: &sel},
		}},
		Filesystem:  p.Filesystem,
		CurrentPath: vfs.Separator,
	}
}

// Clone returns a copy that can be changed without affecting c. Trees are
// immutable and shared.
func (c *Container) Clone() *Container {
	out := *c
	out.History = make([]HandoverEntry, len(c.History))
	copy(out.History, c.History)
	out.Templates.UI = slices.Clone(c.Templates.UI)
	out.Templates.Datastore = slices.Clone(c.Templates.Datastore)
	return &out
}

// State returns the shell state of the container.
func (c *Container) State() shell.State {
	return shell.State{Root: c.Filesystem, Cwd: c.CurrentPath}
}

// WithState returns a copy of c holding st.
func (c *Container) WithState(st shell.State) *Container {
	out := c.Clone()
	out.Filesystem = st.Root
	out.CurrentPath = st.Cwd
	return out
}

// CanDebug reports whether a debug suggestion makes sense: only failed
// containers have an error to explain.
func (c *Container) CanDebug() bool {
	return c.Status == StatusError
}

// LastEntry returns the most recent history entry.
func (c *Container) LastEntry() (HandoverEntry, bool) {
	if len(c.History) == 0 {
		return HandoverEntry{}, false
	}
	return c.History[len(c.History)-1], true
}

// ShortID is the id prefix shown in prompts.
func (c *Container) ShortID() string {
	if len(c.ID) <= 8 {
		return c.ID
	}
	return c.ID[:8]
}

// PromptLine renders the shell prompt for the container.
func (c *Container) PromptLine() string {
	return c.PromptFor(c.CurrentPath)
}

// PromptFor renders the shell prompt as it reads in directory cwd.
func (c *Container) PromptFor(cwd string) string {
	return fmt.Sprintf("%s@%s:%s$", c.Operator, c.ShortID(), cwd)
}
