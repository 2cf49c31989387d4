package testutil

import (
	"testing"

	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

func TestBuildTree(t *testing.T) {
	root := BuildTree(map[string]string{
		"/src/main.js": "main",
		"/README":      "",
	}, "/src/empty", "/docs")

	AssertFileContent(t, root, "/src/main.js", "main")
	AssertFileContent(t, root, "/README", "")
	AssertDirExists(t, root, "/src/empty")
	AssertDirExists(t, root, "/docs")
	AssertNotExists(t, root, "/src/other.js")

	want := vfs.NewRoot(
		vfs.NewDir("src", vfs.NewFile("main.js", "main"), vfs.NewDir("empty")),
		vfs.NewDir("docs"),
		vfs.NewFile("README", ""),
	)
	AssertTreeEqual(t, want, root)
}

func TestShellHelper(t *testing.T) {
	h := NewShellHelper(t, BuildTree(nil, "/src"))

	h.AssertSilent("cd src")
	h.AssertOutput("pwd", "/src")
	h.AssertSilent("touch a.txt")
	h.AssertError("touch", "touch: missing file operand")
	h.AssertOutput("ls", "a.txt")

	AssertFileContent(t, h.Root(), "/src/a.txt", "")
	if h.Shell().Transcript().Len() != 3 {
		t.Errorf("Expected 3 transcript records, got %d", h.Shell().Transcript().Len())
	}
}
