package pipeline

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"codeberg.org/snonux/aitdocs/internal/translate"
)

// DefaultConcurrency is the number of parallel translation jobs when
// none is configured.
const DefaultConcurrency = 4

// Options configures a directory translation run
type Options struct {
	// Root is the directory to scan for translatable files
	Root string

	// OutputDir mirrors outputs into a separate tree instead of
	// writing siblings next to the sources
	OutputDir string

	// Translation selects and configures the provider
	Translation *translate.Config

	// ChunkSize is the Markdown chunk limit in bytes, 0 for the default
	ChunkSize int

	// Concurrency bounds the number of files translated in parallel
	Concurrency int

	// Incremental skips files unchanged since the last recorded commit
	Incremental bool

	// IgnorePatterns are extra glob patterns on top of the ignore files
	IgnorePatterns []string

	// NoCache disables the content cache for this run
	NoCache bool

	// CacheDir overrides the cache location, default is inside Root
	CacheDir string

	// Commit stages and commits produced outputs after the run
	Commit bool

	// CommitMessage overrides the default commit message
	CommitMessage string

	// Push pushes to the remote after a successful commit
	Push bool

	// NoHistory disables recording the run in the history database
	NoHistory bool

	// Mode tags the run in the history database, default "dir"
	Mode string
}

// Validate checks the options before a run starts
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Root, validation.Required),
		validation.Field(&o.Translation, validation.Required),
		validation.Field(&o.Concurrency, validation.Min(0)),
		validation.Field(&o.ChunkSize, validation.Min(0)),
		validation.Field(&o.Push, validation.By(o.pushRequiresCommit)),
	)
}

func (o *Options) pushRequiresCommit(interface{}) error {
	if o.Push && !o.Commit {
		return errors.New("push requires commit")
	}
	return nil
}
