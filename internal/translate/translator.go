package translate

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/aitdocs/internal"
	"codeberg.org/snonux/aitdocs/internal/splitter"
)

// Translator turns whole documents into their translated counterparts.
// Markdown is split into chunks that fit the model context; source code
// files travel as one piece.
type Translator struct {
	provider Provider
	splitter *splitter.Splitter
	config   *Config
}

// NewTranslator builds the provider stack from config and returns a
// document translator using the given chunk size
func NewTranslator(config *Config, chunkSize int) (*Translator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return NewTranslatorWithProvider(provider, config, chunkSize), nil
}

// NewTranslatorWithProvider wires an existing provider into a document
// translator. Retry and circuit breaker layers are added here.
func NewTranslatorWithProvider(provider Provider, config *Config, chunkSize int) *Translator {
	if config == nil {
		config = DefaultConfig()
	}

	p := provider
	if config.MaxRetries > 1 {
		p = NewRetryProvider(p, config.MaxRetries)
	}
	p = NewBreakerProvider(p)

	return &Translator{
		provider: p,
		splitter: splitter.New(chunkSize),
		config:   config,
	}
}

// TranslateText translates a plain text snippet
func (t *Translator) TranslateText(ctx context.Context, text string) (string, error) {
	return t.provider.Translate(ctx, Request{
		SystemPrompt: TextSystemPrompt(t.config.SourceLang, t.config.TargetLang),
		Text:         text,
		SourceLang:   t.config.SourceLang,
		TargetLang:   t.config.TargetLang,
	})
}

// TranslateContent translates a whole document body. The path decides
// how the content is handled: Markdown gets chunked along structure
// boundaries, code files are sent in one request.
func (t *Translator) TranslateContent(ctx context.Context, content, path string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return content, nil
	}

	var systemPrompt string
	var chunks []splitter.Chunk
	if internal.IsCodeFile(path) {
		systemPrompt = CodeSystemPrompt(t.config.SourceLang, t.config.TargetLang)
		chunks = splitter.WholeFile(content)
	} else {
		systemPrompt = MarkdownSystemPrompt(t.config.SourceLang, t.config.TargetLang)
		chunks = t.splitter.Split(content)
	}

	translated := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := t.provider.Translate(ctx, Request{
			SystemPrompt: systemPrompt,
			Text:         chunk.Text,
			SourceLang:   t.config.SourceLang,
			TargetLang:   t.config.TargetLang,
		})
		if err != nil {
			return "", fmt.Errorf("failed to translate chunk %d/%d: %w", chunk.Ordinal+1, len(chunks), err)
		}
		translated = append(translated, out)
	}

	return splitter.Join(translated), nil
}

// ProviderName returns the name of the active provider
func (t *Translator) ProviderName() string {
	return t.provider.Name()
}

// IsAvailable checks if the underlying provider is ready to use
func (t *Translator) IsAvailable() error {
	return t.provider.IsAvailable()
}
