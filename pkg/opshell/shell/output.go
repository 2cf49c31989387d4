package shell

import (
	"fmt"
	"strings"
)

// OutputKind tells a presenter how to render an Output.
type OutputKind int

const (
	// OutputText is plain command output
	OutputText OutputKind = iota
	// OutputListing is a directory listing; Entries is set
	OutputListing
	// OutputHelp is the help screen
	OutputHelp
	// OutputAssistant is text produced by the assistant
	OutputAssistant
	// OutputError is a user-facing error line
	OutputError
)

// String returns the string representation of the OutputKind
func (k OutputKind) String() string {
	switch k {
	case OutputText:
		return "text"
	case OutputListing:
		return "listing"
	case OutputHelp:
		return "help"
	case OutputAssistant:
		return "assistant"
	case OutputError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one name in a directory listing.
type Entry struct {
	Name string
	Dir  bool
}

// Output is the renderable result of one command. A nil *Output means the
// command produced nothing and is not recorded.
type Output struct {
	Kind    OutputKind
	Text    string
	Entries []Entry
}

// String renders the output as plain text. Listings are space separated.
func (o *Output) String() string {
	if o == nil {
		return ""
	}
	if o.Kind == OutputListing {
		names := make([]string, len(o.Entries))
		for i, e := range o.Entries {
			names[i] = e.Name
		}
		return strings.Join(names, "  ")
	}
	return o.Text
}

// IsError reports whether the output is an error line.
func (o *Output) IsError() bool {
	return o != nil && o.Kind == OutputError
}

func textOutput(text string) *Output {
	return &Output{Kind: OutputText, Text: text}
}

func errorf(format string, args ...interface{}) *Output {
	return &Output{Kind: OutputError, Text: fmt.Sprintf(format, args...)}
}
