// Package testutil provides tree builders and shell assertions for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/arthur-debert/opshell/pkg/opshell/shell"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// BuildTree creates a tree holding files (absolute path -> content) and the
// extra, possibly empty, directories dirs.
func BuildTree(files map[string]string, dirs ...string) *vfs.Dir {
	root := vfs.NewRoot()
	for _, d := range dirs {
		root = vfs.MkdirAll(root, d)
	}
	for p, content := range files {
		root = vfs.WriteFile(root, p, content)
	}
	return root
}

// AssertTreeEqual fails the test when the two trees differ, printing both.
func AssertTreeEqual(t *testing.T, want, got *vfs.Dir) {
	t.Helper()
	if !vfs.Equal(want, got) {
		t.Errorf("Tree mismatch:\nExpected:\n%s\nActual:\n%s", vfs.RenderTree(want), vfs.RenderTree(got))
	}
}

// AssertFileContent verifies that a file exists at path with content
func AssertFileContent(t *testing.T, root *vfs.Dir, path, expected string) {
	t.Helper()
	f, ok := vfs.LookupFile(path, root)
	if !ok {
		t.Errorf("Expected file %s to exist", path)
		return
	}
	if f.Content() != expected {
		t.Errorf("File %s content mismatch:\nExpected: %q\nActual: %q", path, expected, f.Content())
	}
}

// AssertDirExists verifies that a directory exists at path
func AssertDirExists(t *testing.T, root *vfs.Dir, path string) {
	t.Helper()
	if _, ok := vfs.LookupDir(path, root); !ok {
		t.Errorf("Expected directory %s to exist", path)
	}
}

// AssertNotExists verifies that nothing exists at path
func AssertNotExists(t *testing.T, root *vfs.Dir, path string) {
	t.Helper()
	if _, ok := vfs.Lookup(path, root); ok {
		t.Errorf("Expected %s to not exist, but it does", path)
	}
}

// ShellHelper drives a shell in tests
type ShellHelper struct {
	t     *testing.T
	shell *shell.Shell
}

// NewShellHelper creates a helper over a shell positioned at the root of root
func NewShellHelper(t *testing.T, root *vfs.Dir, opts ...shell.Option) *ShellHelper {
	return &ShellHelper{t: t, shell: shell.New(shell.NewState(root), opts...)}
}

// Shell returns the shell under test
func (h *ShellHelper) Shell() *shell.Shell {
	return h.shell
}

// Root returns the current tree
func (h *ShellHelper) Root() *vfs.Dir {
	return h.shell.State().Root
}

// Run executes lines in order and returns the output of the last one
func (h *ShellHelper) Run(lines ...string) *shell.Output {
	var out *shell.Output
	for _, line := range lines {
		out = h.shell.Execute(context.Background(), line)
	}
	return out
}

// AssertOutput runs line and checks its rendered output
func (h *ShellHelper) AssertOutput(line, expected string) {
	h.t.Helper()
	out := h.Run(line)
	if out.String() != expected {
		h.t.Errorf("%q output mismatch:\nExpected: %q\nActual: %q", line, expected, out.String())
	}
}

// AssertError runs line and checks that it fails with message
func (h *ShellHelper) AssertError(line, message string) {
	h.t.Helper()
	out := h.Run(line)
	if !out.IsError() {
		h.t.Errorf("%q: expected an error, got %q", line, out.String())
		return
	}
	if out.Text != message {
		h.t.Errorf("%q error mismatch:\nExpected: %q\nActual: %q", line, message, out.Text)
	}
}

// AssertSilent runs line and checks that it printed nothing
func (h *ShellHelper) AssertSilent(line string) {
	h.t.Helper()
	if out := h.Run(line); out != nil {
		h.t.Errorf("%q: expected no output, got %q", line, out.String())
	}
}
