package translate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider translates through the Gemini API
type GeminiProvider struct {
	config *Config
	client *genai.Client
}

// NewGeminiProvider creates a provider backed by the Gemini API
func NewGeminiProvider(config *Config) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		config: config,
		client: client,
	}, nil
}

// Translate sends the text to Gemini with the system prompt attached
func (p *GeminiProvider) Translate(ctx context.Context, req Request) (string, error) {
	model := p.config.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(p.config.Temperature),
		})
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no translation returned by %s", model)
	}

	return strings.TrimSpace(text), nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// IsAvailable checks if an API key is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.APIKey == "" {
		return fmt.Errorf("API key not found")
	}
	return nil
}
