package assistant

import (
	"context"
	"fmt"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"google.golang.org/api/option"
)

// Generator sends one content generation request.
type Generator interface {
	Generate(ctx context.Context, req *generativelanguagepb.GenerateContentRequest) (*generativelanguagepb.GenerateContentResponse, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req *generativelanguagepb.GenerateContentRequest) (*generativelanguagepb.GenerateContentResponse, error)

// Generate implements Generator
func (f GeneratorFunc) Generate(ctx context.Context, req *generativelanguagepb.GenerateContentRequest) (*generativelanguagepb.GenerateContentResponse, error) {
	return f(ctx, req)
}

// Client is a Generator backed by the generative language API.
type Client struct {
	client *generativelanguage.GenerativeClient
}

// Dial connects to the generative language API with apiKey. Extra options
// are passed to the underlying client.
func Dial(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	clientOptions := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := generativelanguage.NewGenerativeClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative client: %w", err)
	}
	return &Client{client: client}, nil
}

// Generate implements Generator
func (c *Client) Generate(ctx context.Context, req *generativelanguagepb.GenerateContentRequest) (*generativelanguagepb.GenerateContentResponse, error) {
	return c.client.GenerateContent(ctx, req)
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.client.Close()
}
