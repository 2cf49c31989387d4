package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// handler runs one command. A nil state means the state is unchanged.
type handler func(ctx context.Context, s *Shell, st State, args []string) (*Output, *State)

var handlers = map[string]handler{
	"help":   cmdHelp,
	"ls":     cmdLs,
	"pwd":    cmdPwd,
	"cat":    cmdCat,
	"cd":     cmdCd,
	"mkdir":  cmdMkdir,
	"touch":  cmdTouch,
	"ai":     cmdAI,
	"php":    scriptRunner("php", "webconsole.php", "Simulated PHP execution: Webconsole active. Host directory structure bridged."),
	"python": scriptRunner("python", "script.py", "Simulated Python execution: script.py finished successfully."),
}

// EmptyFilePlaceholder is what cat prints for a file without content.
const EmptyFilePlaceholder = "(empty file)"

// HelpText lists every command the shell understands.
const HelpText = `Available Commands:
  help               Show this help message.
  ls                 List directory contents.
  cd [path]          Change directory.
  pwd                Print working directory.
  cat [file]         Display file content.
  touch [file]       Create a new empty file.
  mkdir [dir]        Create a new directory.
  clear              Clear the terminal screen.
  php webconsole.php Simulate PHP webconsole.
  python script.py   Simulate Python script execution.
  ai [prompt]        Ask the AI assistant for help.`

func cmdHelp(context.Context, *Shell, State, []string) (*Output, *State) {
	return &Output{Kind: OutputHelp, Text: HelpText}, nil
}

func cmdPwd(_ context.Context, _ *Shell, st State, _ []string) (*Output, *State) {
	return textOutput(st.Cwd), nil
}

func cmdLs(_ context.Context, _ *Shell, st State, _ []string) (*Output, *State) {
	dir, ok := vfs.LookupDir(st.Cwd, st.Root)
	if !ok {
		return errorf("ls: cannot access '%s': Not a directory", st.Cwd), nil
	}
	if dir.Len() == 0 {
		return nil, nil
	}
	children := dir.Children()
	entries := make([]Entry, len(children))
	for i, child := range children {
		entries[i] = Entry{Name: child.Name(), Dir: child.Kind() == vfs.KindDir}
	}
	return &Output{Kind: OutputListing, Entries: entries}, nil
}

func cmdCat(_ context.Context, _ *Shell, st State, args []string) (*Output, *State) {
	if len(args) == 0 {
		return errorf("cat: missing file operand"), nil
	}
	target := vfs.ResolvePath(st.Cwd, args[0])
	f, ok := vfs.LookupFile(target, st.Root)
	if !ok {
		return errorf("cat: %s: No such file or not a file", args[0]), nil
	}
	if f.Content() == "" {
		return textOutput(EmptyFilePlaceholder), nil
	}
	return textOutput(f.Content()), nil
}

func cmdCd(_ context.Context, _ *Shell, st State, args []string) (*Output, *State) {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	target := vfs.Separator
	if arg != "" {
		target = vfs.ResolvePath(st.Cwd, arg)
	}
	if _, ok := vfs.LookupDir(target, st.Root); !ok {
		return errorf("cd: no such file or directory: %s", arg), nil
	}
	return nil, &State{Root: st.Root, Cwd: target}
}

func cmdMkdir(_ context.Context, _ *Shell, st State, args []string) (*Output, *State) {
	if len(args) == 0 {
		return errorf("mkdir: missing operand"), nil
	}
	name := args[0]
	if !vfs.ValidName(name) {
		return errorf("mkdir: invalid directory name: %s", name), nil
	}
	if cwd, ok := vfs.LookupDir(st.Cwd, st.Root); ok && cwd.Has(name) {
		return errorf("mkdir: cannot create directory '%s': File exists", name), nil
	}
	root := vfs.AddChild(st.Root, st.Cwd, vfs.NewDir(name))
	return nil, &State{Root: root, Cwd: st.Cwd}
}

func cmdTouch(_ context.Context, _ *Shell, st State, args []string) (*Output, *State) {
	if len(args) == 0 {
		return errorf("touch: missing file operand"), nil
	}
	name := args[0]
	if !vfs.ValidName(name) {
		return errorf("touch: invalid file name: %s", name), nil
	}
	if cwd, ok := vfs.LookupDir(st.Cwd, st.Root); ok && cwd.Has(name) {
		return nil, nil
	}
	root := vfs.AddChild(st.Root, st.Cwd, vfs.NewFile(name, ""))
	return nil, &State{Root: root, Cwd: st.Cwd}
}

func cmdAI(ctx context.Context, s *Shell, st State, args []string) (out *Output, _ *State) {
	prompt := strings.Join(args, " ")
	if s.assistant == nil {
		return errorf("AI Error: %s", ErrNoAssistant), nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("assistant panicked")
			out = errorf("AI Error: %v", r)
		}
	}()

	text, err := s.assistant.Respond(ctx, prompt, st.Root, st.Cwd)
	if err != nil {
		s.logger.Warn().Err(err).Str("prompt", prompt).Msg("assistant call failed")
		return errorf("AI Error: %s", err.Error()), nil
	}
	return &Output{Kind: OutputAssistant, Text: text}, nil
}

// scriptRunner builds a cosmetic interpreter command that only recognises
// one script name, and only when that file exists in the working directory.
func scriptRunner(command, script, success string) handler {
	notFound := fmt.Sprintf("%s: script not found.", command)
	return func(_ context.Context, _ *Shell, st State, args []string) (*Output, *State) {
		if len(args) == 0 || args[0] != script {
			return errorf("%s", notFound), nil
		}
		if _, ok := vfs.LookupFile(vfs.ResolvePath(st.Cwd, script), st.Root); !ok {
			return errorf("%s", notFound), nil
		}
		return textOutput(success), nil
	}
}
