package assistant

import (
	"context"

	"github.com/arthur-debert/opshell/pkg/opshell/container"
	"github.com/arthur-debert/opshell/pkg/opshell/templates"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// Messages returned when no model is available.
const (
	NotConfiguredReply = "AI service is not configured."
	NotConfiguredDebug = "I apologize, but the AI service is not configured. I cannot provide debugging help."
)

// Unconfigured is the Service used without an API key.
type Unconfigured struct{}

var _ Service = Unconfigured{}

// Respond implements Service
func (Unconfigured) Respond(context.Context, string, *vfs.Dir, string) (string, error) {
	return NotConfiguredReply, nil
}

// DebugSuggestion implements Service
func (Unconfigured) DebugSuggestion(context.Context, []container.HandoverEntry) (string, error) {
	return NotConfiguredDebug, nil
}

// ParseBuildPrompt picks templates by name matching.
func (Unconfigured) ParseBuildPrompt(_ context.Context, prompt string, reg *templates.Registry) (templates.Selection, error) {
	return reg.Match(prompt), nil
}
