package models

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/aitdocs/internal/translate"
)

// Lister handles listing models from an OpenAI-compatible endpoint
type Lister struct {
	config *translate.Config
	client *openai.Client
}

// NewLister creates a model lister for the configured endpoint
func NewLister(config *translate.Config) *Lister {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Lister{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// ListAvailableModels lists the models the endpoint offers, chat models
// suitable for translation first
func (l *Lister) ListAvailableModels() error {
	if l.config.APIKey == "" {
		return fmt.Errorf("API key not found. Set AITDOCS_API_KEY environment variable or configure in .aitdocs.yaml")
	}

	ctx := context.Background()
	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	chatModels := []string{}
	otherModels := []string{}
	for _, model := range models.Models {
		if isChatModel(model.ID) {
			chatModels = append(chatModels, model.ID)
		} else {
			otherModels = append(otherModels, model.ID)
		}
	}

	sort.Strings(chatModels)
	sort.Strings(otherModels)

	endpoint := l.config.BaseURL
	if endpoint == "" {
		endpoint = "api.openai.com"
	}
	fmt.Printf("Available models at %s:\n", endpoint)

	fmt.Println("\nChat/Translation Models:")
	if len(chatModels) == 0 {
		fmt.Println("  No chat models found")
	} else {
		for _, model := range chatModels {
			fmt.Printf("  %s\n", model)
		}
	}

	if len(otherModels) > 0 {
		fmt.Println("\nOther Models:")
		if len(otherModels) > 20 {
			for _, model := range otherModels[:20] {
				fmt.Printf("  %s\n", model)
			}
			fmt.Printf("  ... and %d more models\n", len(otherModels)-20)
		} else {
			for _, model := range otherModels {
				fmt.Printf("  %s\n", model)
			}
		}
	}

	return nil
}

// isChatModel reports whether a model ID looks like a chat completion
// model usable for translation
func isChatModel(id string) bool {
	for _, marker := range []string{"qwen", "gpt", "chat", "turbo", "plus", "max"} {
		if strings.Contains(id, marker) {
			return true
		}
	}
	return false
}
