package cli

import (
	"time"

	"codeberg.org/snonux/aitdocs/internal/pipeline"
	"codeberg.org/snonux/aitdocs/internal/splitter"
	"codeberg.org/snonux/aitdocs/internal/translate"
	"codeberg.org/snonux/aitdocs/internal/watcher"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	SourceLang string
	TargetLang string

	// Directory pipeline flags
	OutputDir      string
	IgnorePatterns []string
	Incremental    bool
	Concurrency    int
	ChunkSize      int
	NoCache        bool
	CacheDir       string
	Commit         bool
	CommitMessage  string
	Push           bool
	NoHistory      bool

	// Watch flags
	Debounce time.Duration

	// History flags
	HistoryLimit int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Provider:     translate.ProviderOpenAI,
		SourceLang:   translate.SourceAuto,
		TargetLang:   "en",
		Concurrency:  pipeline.DefaultConcurrency,
		ChunkSize:    splitter.DefaultChunkSize,
		Debounce:     watcher.DefaultDebounce,
		HistoryLimit: 20,
	}
}
