package assistant

import (
	"fmt"
	"strings"

	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"

	"github.com/arthur-debert/opshell/pkg/opshell/templates"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// TerminalInstruction builds the system instruction for a terminal question.
func TerminalInstruction(root *vfs.Dir, cwd string) (string, error) {
	outline, err := vfs.Outline(root)
	if err != nil {
		return "", fmt.Errorf("failed to outline filesystem: %w", err)
	}
	return fmt.Sprintf(`You are an expert-level AI assistant inside a simulated web development container's terminal.
Your name is Codex.
The user is interacting with you via a command line interface.
You have access to the container's virtual file system.
Your goal is to be helpful, concise, and provide expert guidance.

You can answer questions, provide code snippets, or suggest terminal commands.
When suggesting commands, prefix each command with '$' so the user knows it's a command. For example: $ mkdir new-component

Current Path: %s
File System Structure (abbreviated):
%s
`, cwd, outline), nil
}

const debugInstruction = `You are a senior software engineer acting as a debugging assistant. You will be given a build history log in JSON format from a simulated application builder. The last entry in the log is an error. Your task is to analyze the log, understand the context, and provide a clear, concise, and helpful suggestion to fix the error. The user is a "System Operator" in a simulated environment. Frame your response as helpful advice. Format the response as simple markdown.`

// BuildInstruction builds the system instruction for template selection.
func BuildInstruction(reg *templates.Registry) string {
	return fmt.Sprintf(`You are an expert system that parses user requests to build software and selects the correct technologies from a predefined registry.
Your task is to analyze the user's prompt and identify the base template, UI libraries, and datastore technologies required.

The available registry is:
- Base Templates: %s
- UI Libraries: %s
- Datastores: %s

Rules:
- You MUST select exactly ONE base template. If multiple are mentioned, choose the most prominent one. Default to '%s' if unsure.
- You can select MULTIPLE UI libraries.
- You can select MULTIPLE datastores.
- If a technology is mentioned that is not in the registry, ignore it.
- Respond ONLY with a JSON object. Do not add any conversational text or markdown formatting.
`,
		strings.Join(reg.Names(templates.CategoryTemplates), ", "),
		strings.Join(reg.Names(templates.CategoryUI), ", "),
		strings.Join(reg.Names(templates.CategoryDatastore), ", "),
		templates.DefaultBase,
	)
}

var selectionSchema = &generativelanguagepb.Schema{
	Type: generativelanguagepb.Type_OBJECT,
	Properties: map[string]*generativelanguagepb.Schema{
		"base": {
			Type:        generativelanguagepb.Type_STRING,
			Description: "The single base template selected from the registry.",
		},
		"ui": {
			Type:        generativelanguagepb.Type_ARRAY,
			Items:       &generativelanguagepb.Schema{Type: generativelanguagepb.Type_STRING},
			Description: "A list of UI libraries selected from the registry.",
		},
		"datastore": {
			Type:        generativelanguagepb.Type_ARRAY,
			Items:       &generativelanguagepb.Schema{Type: generativelanguagepb.Type_STRING},
			Description: "A list of datastores selected from the registry.",
		},
	},
	Required: []string{"base", "ui", "datastore"},
}
