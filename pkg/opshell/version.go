package opshell

import "fmt"

// BuildInfo describes the running binary. The CLI fills it from linker flags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// String formats the build info the way `opshell version` prints it.
func (b BuildInfo) String() string {
	return fmt.Sprintf("opshell %s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}
