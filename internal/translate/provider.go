package translate

import (
	"context"
	"fmt"
)

// Provider names accepted in configuration
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// SourceAuto asks the model to detect the source language itself
const SourceAuto = "auto"

// Request is a single translation call against a provider
type Request struct {
	SystemPrompt string
	Text         string
	SourceLang   string
	TargetLang   string
}

// Provider is the interface all translation backends implement
type Provider interface {
	// Translate sends text to the model and returns the translation
	Translate(ctx context.Context, req Request) (string, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is configured and ready
	IsAvailable() error
}

// NewProvider creates a translation provider based on the config
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid translation config: %w", err)
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(config), nil
	case ProviderGemini:
		return NewGeminiProvider(config)
	default:
		return nil, fmt.Errorf("unknown translation provider: %s (supported: %s, %s)",
			config.Provider, ProviderOpenAI, ProviderGemini)
	}
}
