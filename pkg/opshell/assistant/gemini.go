// Package assistant answers operator questions with a generative model.
//
// Gemini talks to the model through a Generator; Unconfigured stands in when
// no API key is available and answers with fixed text, or with the offline
// template matcher for build prompts.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/arthur-debert/opshell/pkg/opshell/container"
	"github.com/arthur-debert/opshell/pkg/opshell/templates"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

var (
	// ErrNotConfigured is returned when an API key is required but missing.
	ErrNotConfigured = errors.New("AI service is not configured")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("model returned no content")
	// ErrBusy replaces quota errors that outlived every retry.
	ErrBusy = errors.New("AI service is experiencing high traffic, please try again in a moment")
)

// Service is what the application needs from an assistant.
type Service interface {
	Respond(ctx context.Context, prompt string, root *vfs.Dir, cwd string) (string, error)
	DebugSuggestion(ctx context.Context, history []container.HandoverEntry) (string, error)
	ParseBuildPrompt(ctx context.Context, prompt string, reg *templates.Registry) (templates.Selection, error)
}

// Option configures Gemini
type Option func(*Gemini)

// WithModel sets the model name, with or without the "models/" prefix
func WithModel(model string) Option {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gemini) {
		g.logger = logger
	}
}

// WithRetry sets how many attempts a request gets and the first backoff.
// The backoff doubles after every retryable failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(g *Gemini) {
		if attempts > 0 {
			g.attempts = attempts
		}
		if backoff >= 0 {
			g.backoff = backoff
		}
	}
}

// Gemini is a Service backed by a Gemini model.
type Gemini struct {
	gen      Generator
	model    string
	logger   zerolog.Logger
	attempts int
	backoff  time.Duration
}

var _ Service = (*Gemini)(nil)

// NewGemini creates an assistant sending requests through gen.
func NewGemini(gen Generator, opts ...Option) *Gemini {
	g := &Gemini{
		gen:      gen,
		model:    DefaultModel,
		logger:   zerolog.Nop(),
		attempts: 5,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the fully qualified model name.
func (g *Gemini) Model() string {
	return ModelName(g.model)
}

// ModelName qualifies a bare model name with the "models/" collection.
func ModelName(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

// Respond answers a question asked from the container terminal. The model
// sees the working directory and the tree outline without file contents.
func (g *Gemini) Respond(ctx context.Context, prompt string, root *vfs.Dir, cwd string) (string, error) {
	instruction, err := TerminalInstruction(root, cwd)
	if err != nil {
		return "", err
	}
	req := g.request(instruction, fmt.Sprintf("User prompt: \"%s\"", prompt))
	return g.generateText(ctx, "terminal", req)
}

// DebugSuggestion asks for advice on the failure that ends history.
func (g *Gemini) DebugSuggestion(ctx context.Context, history []container.HandoverEntry) (string, error) {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}
	req := g.request(debugInstruction,
		"Here is the build history. The last entry contains the error. Please provide debugging advice.\n\n"+string(data))
	return g.generateText(ctx, "debug", req)
}

// ParseBuildPrompt asks the model to pick templates for prompt. The answer is
// constrained by a response schema and normalized against reg.
func (g *Gemini) ParseBuildPrompt(ctx context.Context, prompt string, reg *templates.Registry) (templates.Selection, error) {
	req := g.request(BuildInstruction(reg), fmt.Sprintf("Parse the following user prompt: \"%s\"", prompt))
	req.GenerationConfig = &generativelanguagepb.GenerationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   selectionSchema,
	}

	text, err := g.generateText(ctx, "build", req)
	if err != nil {
		return templates.Selection{}, fmt.Errorf("failed to understand the build request: %w", err)
	}

	var sel templates.Selection
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &sel); err != nil {
		return templates.Selection{}, fmt.Errorf("failed to understand the build request: %w", err)
	}
	return reg.Normalize(sel), nil
}

func (g *Gemini) request(instruction, prompt string) *generativelanguagepb.GenerateContentRequest {
	return &generativelanguagepb.GenerateContentRequest{
		Model: g.Model(),
		SystemInstruction: &generativelanguagepb.Content{
			Parts: []*generativelanguagepb.Part{textPart(instruction)},
		},
		Contents: []*generativelanguagepb.Content{{
			Role:  "user",
			Parts: []*generativelanguagepb.Part{textPart(prompt)},
		}},
	}
}

func textPart(text string) *generativelanguagepb.Part {
	return &generativelanguagepb.Part{
		Data: &generativelanguagepb.Part_Text{Text: text},
	}
}

func (g *Gemini) generateText(ctx context.Context, kind string, req *generativelanguagepb.GenerateContentRequest) (string, error) {
	text, err := doWithRetry(ctx, g, func() (string, error) {
		g.logger.Debug().Str("model", req.Model).Str("kind", kind).Msg("generating")
		resp, err := g.gen.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return responseText(resp)
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("kind", kind).Msg("generation failed")
		if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
			return "", ErrBusy
		}
		return "", err
	}
	return text, nil
}

func responseText(resp *generativelanguagepb.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.GetCandidates()) == 0 {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, part := range resp.GetCandidates()[0].GetContent().GetParts() {
		b.WriteString(part.GetText())
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

func doWithRetry[T any](ctx context.Context, g *Gemini, fn func() (T, error)) (ret T, err error) {
	for i := 0; i < g.attempts; i++ {
		ret, err = fn()
		if err == nil || !isRetryable(err) || i == g.attempts-1 {
			return ret, err
		}
		g.logger.Warn().Err(err).Int("attempt", i+1).Msg("retry")
		select {
		case <-ctx.Done():
			return ret, ctx.Err()
		case <-time.After(g.backoff * time.Duration(1<<i)):
		}
	}
	return ret, err
}

func isRetryable(err error) bool {
	s, ok := status.FromError(err)
	return ok && (s.Code() == codes.ResourceExhausted || s.Code() == codes.Unavailable)
}
