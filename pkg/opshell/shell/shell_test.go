package shell

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

func newShell(t *testing.T, root *vfs.Dir, opts ...Option) *Shell {
	t.Helper()
	return New(NewState(root), opts...)
}

func run(t *testing.T, s *Shell, lines ...string) *Output {
	t.Helper()
	var out *Output
	for _, line := range lines {
		out = s.Execute(context.Background(), line)
	}
	return out
}

func TestMkdirCdPwd(t *testing.T) {
	s := newShell(t, vfs.NewRoot())
	out := run(t, s, "mkdir a", "cd a", "pwd")
	require.NotNil(t, out)
	assert.Equal(t, "/a", out.Text)

	s = newShell(t, vfs.NewRoot(vfs.NewDir("x", vfs.NewDir("y"))))
	out = run(t, s, "cd x/y", "mkdir a", "cd a", "pwd")
	assert.Equal(t, "/x/y/a", out.Text)
	assert.True(t, strings.HasSuffix(out.Text, "/a"))
}

func TestTouchCreatesEmptyFile(t *testing.T) {
	s := newShell(t, vfs.NewRoot(vfs.NewDir("src")))
	assert.Nil(t, run(t, s, "cd src", "touch x"))

	f, ok := vfs.LookupFile("/src/x", s.State().Root)
	require.True(t, ok)
	assert.Equal(t, "", f.Content())
}

func TestTouchNeverClobbers(t *testing.T) {
	s := newShell(t, vfs.NewRoot())
	run(t, s, "touch x")

	// simulate a prior write straight into the tree
	st := s.State()
	written := vfs.AddChild(st.Root, "/", vfs.NewFile("x", "precious"))
	s = New(State{Root: written, Cwd: "/"})

	assert.Nil(t, run(t, s, "touch x"))
	f, ok := vfs.LookupFile("/x", s.State().Root)
	require.True(t, ok)
	assert.Equal(t, "precious", f.Content())
	assert.Equal(t, 0, s.Transcript().Len(), "successful touch prints nothing")
}

func TestNameValidation(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"mkdir a/b", "mkdir: invalid directory name: a/b"},
		{`mkdir a\b`, `mkdir: invalid directory name: a\b`},
		{"mkdir", "mkdir: missing operand"},
		{"touch a/b", "touch: invalid file name: a/b"},
		{`touch a\b`, `touch: invalid file name: a\b`},
		{"touch", "touch: missing file operand"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			root := vfs.NewRoot(vfs.NewDir("keep"))
			s := newShell(t, root)
			out := run(t, s, tt.line)
			require.NotNil(t, out)
			assert.True(t, out.IsError())
			assert.Equal(t, tt.want, out.Text)
			assert.True(t, vfs.Equal(root, s.State().Root), "tree must be unchanged")
		})
	}
}

func TestMkdirDuplicate(t *testing.T) {
	s := newShell(t, vfs.NewRoot())
	assert.Nil(t, run(t, s, "mkdir dup"))
	afterFirst := s.State().Root

	out := run(t, s, "mkdir dup")
	require.NotNil(t, out)
	assert.Equal(t, "mkdir: cannot create directory 'dup': File exists", out.Text)
	assert.True(t, vfs.Equal(afterFirst, s.State().Root))

	run(t, s, "touch f")
	out = run(t, s, "mkdir f")
	assert.Equal(t, "mkdir: cannot create directory 'f': File exists", out.Text)
}

func TestCat(t *testing.T) {
	root := vfs.NewRoot(
		vfs.NewDir("d"),
		vfs.NewDir("src", vfs.NewFile("main.js", "console.log(1)")),
		vfs.NewFile("empty", ""),
	)
	tests := []struct {
		name string
		cwd  string
		line string
		want string
		err  bool
	}{
		{"file content", "/", "cat src/main.js", "console.log(1)", false},
		{"relative from subdir", "/src", "cat main.js", "console.log(1)", false},
		{"dotdot", "/src", "cat ../empty", EmptyFilePlaceholder, false},
		{"directory fails", "/", "cat d", "cat: d: No such file or not a file", true},
		{"missing fails", "/", "cat nope", "cat: nope: No such file or not a file", true},
		{"no operand", "/", "cat", "cat: missing file operand", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(State{Root: root, Cwd: tt.cwd})
			out := run(t, s, tt.line)
			require.NotNil(t, out)
			assert.Equal(t, tt.want, out.Text)
			assert.Equal(t, tt.err, out.IsError())
		})
	}

	s := newShell(t, vfs.NewRoot())
	out := run(t, s, "mkdir d", "cat d")
	assert.Equal(t, "cat: d: No such file or not a file", out.Text)
}

func TestCd(t *testing.T) {
	root := vfs.NewRoot(vfs.NewDir("src", vfs.NewDir("components")), vfs.NewFile("f", ""))

	s := newShell(t, root)
	assert.Nil(t, run(t, s, "cd src/components"))
	assert.Equal(t, "/src/components", s.State().Cwd)

	assert.Nil(t, run(t, s, "cd"))
	assert.Equal(t, "/", s.State().Cwd, "cd without argument goes to the root")

	out := run(t, s, "cd f")
	assert.Equal(t, "cd: no such file or directory: f", out.Text)
	assert.Equal(t, "/", s.State().Cwd)

	run(t, s, "cd src")
	out = run(t, s, "cd ../missing")
	assert.Equal(t, "cd: no such file or directory: ../missing", out.Text)
	assert.Equal(t, "/src", s.State().Cwd)

	assert.Nil(t, run(t, s, "cd .."))
	assert.Nil(t, run(t, s, "cd .."))
	assert.Equal(t, "/", s.State().Cwd)
}

func TestLs(t *testing.T) {
	s := newShell(t, vfs.NewRoot())
	assert.Nil(t, run(t, s, "ls"), "empty directory prints nothing")
	assert.Equal(t, 0, s.Transcript().Len())

	run(t, s, "touch b.txt", "mkdir a")
	out := run(t, s, "ls")
	require.NotNil(t, out)
	assert.Equal(t, OutputListing, out.Kind)
	assert.Equal(t, []Entry{{Name: "a", Dir: true}, {Name: "b.txt"}}, out.Entries)
	assert.Equal(t, "a  b.txt", out.String())

	broken := New(State{Root: vfs.NewRoot(), Cwd: "/gone"})
	out = run(t, broken, "ls")
	assert.Equal(t, "ls: cannot access '/gone': Not a directory", out.Text)
}

func TestUnknownCommand(t *testing.T) {
	s := newShell(t, vfs.NewRoot())
	out := run(t, s, "foobar")
	require.NotNil(t, out)
	assert.Equal(t, "command not found: foobar", out.Text)
	assert.True(t, out.IsError())
}

func TestEndToEnd(t *testing.T) {
	s := newShell(t, vfs.NewRoot())
	out := run(t, s, "mkdir src", "cd src", "touch a.txt", "cd ..", "ls")

	require.NotNil(t, out)
	assert.Equal(t, []Entry{{Name: "src", Dir: true}}, out.Entries)

	f, ok := vfs.LookupFile("/src/a.txt", s.State().Root)
	require.True(t, ok)
	assert.Equal(t, "", f.Content())

	records := s.Transcript().Records()
	require.Len(t, records, 1, "only ls printed anything")
	assert.Equal(t, "ls", records[0].Input)
	assert.Equal(t, "/", records[0].Cwd)
}

func TestScripts(t *testing.T) {
	root := vfs.NewRoot(
		vfs.NewFile("webconsole.php", "<?php ?>"),
		vfs.NewFile("script.py", "print()"),
		vfs.NewDir("sub"),
	)
	s := newShell(t, root)

	assert.Equal(t, "Simulated PHP execution: Webconsole active. Host directory structure bridged.", run(t, s, "php webconsole.php").Text)
	assert.Equal(t, "Simulated Python execution: script.py finished successfully.", run(t, s, "python script.py").Text)
	assert.Equal(t, "php: script not found.", run(t, s, "php other.php").Text)
	assert.Equal(t, "php: script not found.", run(t, s, "php").Text)
	assert.Equal(t, "python: script not found.", run(t, s, "python webconsole.php").Text)

	run(t, s, "cd sub")
	assert.Equal(t, "php: script not found.", run(t, s, "php webconsole.php").Text)
	assert.Equal(t, "python: script not found.", run(t, s, "python script.py").Text)
}

func TestHelpAndClear(t *testing.T) {
	s := newShell(t, vfs.NewRoot())
	out := run(t, s, "help")
	require.NotNil(t, out)
	assert.Equal(t, OutputHelp, out.Kind)
	for _, name := range []string{"help", "ls", "cd", "pwd", "cat", "touch", "mkdir", "clear", "php", "python", "ai"} {
		assert.Contains(t, out.Text, name)
	}

	run(t, s, "pwd", "foobar")
	assert.Equal(t, 3, s.Transcript().Len())

	assert.Nil(t, run(t, s, "clear"))
	assert.Equal(t, 0, s.Transcript().Len(), "clear is not logged itself")

	assert.Nil(t, run(t, s, "   "))
	assert.Equal(t, 0, s.Transcript().Len())
}

func TestAI(t *testing.T) {
	t.Run("delegates with context", func(t *testing.T) {
		root := vfs.NewRoot(vfs.NewDir("src"))
		var gotPrompt, gotCwd string
		var gotRoot *vfs.Dir
		a := AssistantFunc(func(_ context.Context, prompt string, r *vfs.Dir, cwd string) (string, error) {
			gotPrompt, gotRoot, gotCwd = prompt, r, cwd
			return "$ mkdir components", nil
		})
		s := newShell(t, root, WithAssistant(a))
		run(t, s, "cd src")
		out := run(t, s, "ai   how do I   add a component")

		require.NotNil(t, out)
		assert.Equal(t, OutputAssistant, out.Kind)
		assert.Equal(t, "$ mkdir components", out.Text)
		assert.Equal(t, "how do I add a component", gotPrompt)
		assert.Equal(t, "/src", gotCwd)
		assert.Same(t, root, gotRoot)
	})

	t.Run("failure becomes an error line", func(t *testing.T) {
		a := AssistantFunc(func(context.Context, string, *vfs.Dir, string) (string, error) {
			return "", errors.New("quota exceeded")
		})
		s := newShell(t, vfs.NewRoot(), WithAssistant(a))
		out := run(t, s, "ai hello")
		assert.Equal(t, "AI Error: quota exceeded", out.Text)
		assert.True(t, out.IsError())
		assert.Equal(t, 1, s.Transcript().Len())
	})

	t.Run("panic is contained", func(t *testing.T) {
		a := AssistantFunc(func(context.Context, string, *vfs.Dir, string) (string, error) {
			panic("boom")
		})
		s := newShell(t, vfs.NewRoot(), WithAssistant(a))
		out := run(t, s, "ai hello")
		assert.Equal(t, "AI Error: boom", out.Text)
	})

	t.Run("cancelled context", func(t *testing.T) {
		a := AssistantFunc(func(ctx context.Context, _ string, _ *vfs.Dir, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
		s := newShell(t, vfs.NewRoot(), WithAssistant(a))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out := s.Execute(ctx, "ai hello")
		assert.Equal(t, "AI Error: context canceled", out.Text)
	})

	t.Run("no assistant", func(t *testing.T) {
		s := newShell(t, vfs.NewRoot())
		assert.Equal(t, "AI Error: assistant not configured", run(t, s, "ai hi").Text)
	})
}

func TestOnChange(t *testing.T) {
	var states []State
	s := newShell(t, vfs.NewRoot(), WithOnChange(func(st State) {
		states = append(states, st)
	}))

	run(t, s, "mkdir a", "mkdir a", "cd a", "ls", "touch f", "touch f", "cd /nope")
	require.Len(t, states, 3, "mkdir, cd and the first touch change state")
	assert.Equal(t, "/", states[0].Cwd)
	assert.Equal(t, "/a", states[1].Cwd)
	_, ok := vfs.LookupFile("/a/f", states[2].Root)
	assert.True(t, ok)
}

func TestTokenize(t *testing.T) {
	cmd, args := Tokenize("  cat\t a.txt   b ")
	assert.Equal(t, "cat", cmd)
	assert.Equal(t, []string{"a.txt", "b"}, args)

	cmd, args = Tokenize("")
	assert.Equal(t, "", cmd)
	assert.Empty(t, args)
}

func TestBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	a := AssistantFunc(func(context.Context, string, *vfs.Dir, string) (string, error) {
		close(started)
		<-release
		return "done", nil
	})
	s := newShell(t, vfs.NewRoot(), WithAssistant(a))
	assert.False(t, s.Busy())

	done := make(chan *Output)
	go func() { done <- s.Execute(context.Background(), "ai wait") }()
	<-started
	assert.True(t, s.Busy())
	assert.Equal(t, 0, s.Transcript().Len(), "transcript is readable mid-call")

	close(release)
	out := <-done
	assert.Equal(t, "done", out.Text)
	assert.False(t, s.Busy())
}
