package translate

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Defaults match the DashScope OpenAI-compatible service the tool was
// first built against. Any other compatible endpoint works through
// BaseURL.
const (
	DefaultBaseURL     = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultModel       = "qwen-plus"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultTemperature = 0.7
	DefaultMaxRetries  = 3
)

// Config holds provider selection and connection settings
type Config struct {
	Provider    string // "openai" or "gemini"
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint, ignored by gemini
	Model       string // empty selects the provider default
	SourceLang  string // "auto" lets the model detect the source
	TargetLang  string
	Temperature float32
	MaxRetries  int
}

// DefaultConfig returns the default translation configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderOpenAI,
		BaseURL:     DefaultBaseURL,
		SourceLang:  SourceAuto,
		TargetLang:  "en",
		Temperature: DefaultTemperature,
		MaxRetries:  DefaultMaxRetries,
	}
}

// Validate checks the configuration before a provider is built
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderOpenAI, ProviderGemini)),
		validation.Field(&c.APIKey, validation.Required.Error("API key is required")),
		validation.Field(&c.TargetLang, validation.Required),
		validation.Field(&c.Temperature, validation.Min(float32(0)), validation.Max(float32(2))),
		validation.Field(&c.MaxRetries, validation.Min(1)),
	)
}
