// Package tui is the interactive terminal for one container: a transcript
// pane, the file tree of the container and an input line.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/opshell/pkg/opshell/shell"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// ThinkingText is shown while an assistant call is in flight.
const ThinkingText = "Codex is thinking..."

const treeWidth = 32

// PromptFunc renders the prompt for a working directory.
type PromptFunc func(cwd string) string

// Option configures a Model
type Option func(*Model)

// WithPrompt sets the prompt renderer
func WithPrompt(fn PromptFunc) Option {
	return func(m *Model) {
		m.prompt = fn
	}
}

// WithTitle sets the header text
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// Model is the bubbletea model of the container terminal.
type Model struct {
	ctx    context.Context
	shell  *shell.Shell
	prompt PromptFunc
	title  string

	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int

	pending     bool
	pendingLine string
	pendingCwd  string
}

// executedMsg carries the result of a line run off the update loop.
type executedMsg struct {
	out *shell.Output
}

// New creates the terminal model over sh.
func New(ctx context.Context, sh *shell.Shell, opts ...Option) *Model {
	m := &Model{
		ctx:    ctx,
		shell:  sh,
		prompt: func(cwd string) string { return cwd + "$" },
		title:  "container terminal",
	}
	for _, opt := range opts {
		opt(m)
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "type help"
	ti.Focus()
	m.input = ti

	m.viewport = viewport.New(80, 20)
	m.refresh()
	return m
}

// Run starts the terminal on the alternate screen and blocks until the user
// quits or ctx ends.
func Run(ctx context.Context, sh *shell.Shell, opts ...Option) error {
	p := tea.NewProgram(New(ctx, sh, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Pending reports whether an assistant call is in flight.
func (m *Model) Pending() bool {
	return m.pending
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-treeWidth-2, 20)
		m.viewport.Height = max(msg.Height-4, 3)
		m.input.Width = m.viewport.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.pending {
			return m, nil
		}

	case executedMsg:
		m.pending = false
		m.pendingLine = ""
		m.input.Focus()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs the typed line. Assistant calls run off the update loop and
// lock the input until they finish; everything else runs in place.
func (m *Model) submit() tea.Cmd {
	if m.pending {
		return nil
	}
	line := m.input.Value()
	m.input.Reset()

	command, _ := shell.Tokenize(line)
	if command != "ai" {
		m.shell.Execute(m.ctx, line)
		m.refresh()
		return nil
	}

	m.pending = true
	m.pendingLine = line
	m.pendingCwd = m.shell.State().Cwd
	m.input.Blur()
	m.refresh()

	sh, ctx := m.shell, m.ctx
	return func() tea.Msg {
		return executedMsg{out: sh.Execute(ctx, line)}
	}
}

func (m *Model) refresh() {
	var b strings.Builder
	b.WriteString(RenderTranscript(m.shell.Transcript().Records(), m.prompt))
	if m.pending {
		b.WriteString(promptStyle.Render(m.prompt(m.pendingCwd)))
		b.WriteString(" " + m.pendingLine + "\n")
		b.WriteString(pendingStyle.Render(ThinkingText) + "\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// RenderTranscript renders records the way the terminal shows them: each
// input line after its prompt, then the styled output.
func RenderTranscript(records []shell.Record, prompt PromptFunc) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(promptStyle.Render(prompt(r.Cwd)))
		b.WriteString(" " + r.Input + "\n")
		b.WriteString(renderOutput(r.Output))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderOutput(out *shell.Output) string {
	switch out.Kind {
	case shell.OutputListing:
		names := make([]string, len(out.Entries))
		for i, e := range out.Entries {
			if e.Dir {
				names[i] = dirStyle.Render(e.Name)
			} else {
				names[i] = e.Name
			}
		}
		return strings.Join(names, "  ")
	case shell.OutputError:
		return errorStyle.Render(out.Text)
	case shell.OutputAssistant:
		return assistantStyle.Render(out.Text)
	default:
		return out.Text
	}
}

// RenderTree renders the file tree pane: directories first, then files,
// each level indented by two spaces.
func RenderTree(root *vfs.Dir) string {
	var b strings.Builder
	for _, line := range vfs.Tree(root) {
		b.WriteString(strings.Repeat("  ", line.Depth))
		if line.Kind == vfs.KindDir {
			name := line.Name
			if line.Depth > 0 {
				name += "/"
			}
			b.WriteString(dirStyle.Render(name))
		} else {
			b.WriteString(line.Name)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// View implements tea.Model
func (m *Model) View() string {
	header := titleStyle.Render(m.title)

	tree := treePaneStyle.
		Width(treeWidth).
		Height(m.viewport.Height).
		Render(RenderTree(m.shell.State().Root))
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), tree)

	var footer string
	if m.pending {
		footer = pendingStyle.Render(ThinkingText)
	} else {
		footer = promptStyle.Render(m.prompt(m.shell.State().Cwd)) + " " + m.input.View()
	}
	help := helpStyle.Render("enter run • pgup/pgdn scroll • ctrl+c quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer, help)
}
