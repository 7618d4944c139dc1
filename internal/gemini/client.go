// Package gemini transcribes recorded voice commands with the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for speech-to-text.
const DefaultModel = "gemini-2.5-flash"

// ErrMissingAPIKey is returned by NewClient without a key.
var ErrMissingAPIKey = errors.New("gemini API key is required")

// ContentGenerator is the single genai call the transcriber makes.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type modelsAdapter struct {
	models *genai.Models
}

func (m *modelsAdapter) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	resp, err := m.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.GenerateContent: %w", err)
	}
	return resp, nil
}

// Option configures a Client.
type Option func(*Client)

// WithModel selects the Gemini model. Empty keeps DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// Client transcribes audio through Gemini. It implements voice.Transcriber.
type Client struct {
	generator ContentGenerator
	model     string
}

// NewClient creates a Gemini-backed Client. Outgoing calls are traced.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewClientWithGenerator(&modelsAdapter{models: client.Models}, opts...), nil
}

// NewClientWithGenerator creates a Client around generator. Tests pass a fake.
func NewClientWithGenerator(generator ContentGenerator, opts ...Option) *Client {
	c := &Client{generator: generator, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the Gemini model in use.
func (c *Client) Model() string {
	return c.model
}
