package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/aitdocs/internal"
	"codeberg.org/snonux/aitdocs/internal/cache"
	"codeberg.org/snonux/aitdocs/internal/git"
	"codeberg.org/snonux/aitdocs/internal/history"
	"codeberg.org/snonux/aitdocs/internal/ignore"
	"codeberg.org/snonux/aitdocs/internal/splitter"
	"codeberg.org/snonux/aitdocs/internal/state"
	"codeberg.org/snonux/aitdocs/internal/translate"
)

// FileFailure is one file that could not be translated
type FileFailure struct {
	Path string
	Err  error
}

// Report summarizes a finished run
type Report struct {
	Candidates int // eligible files found under the root
	Unchanged  int // skipped by change detection
	Translated int // translated through the provider
	CacheHits  int // served from the content cache
	Failed     int
	Failures   []FileFailure
	Outputs    []string // written output paths, relative to the root
	Commit     string   // commit created by this run, if any
	Duration   time.Duration
}

// Pipeline runs directory translations according to its options
type Pipeline struct {
	opts       Options
	translator *translate.Translator
	matcher    *ignore.Matcher
	cache      *cache.Cache
	state      *state.Store
	repo       *git.Repo
}

// New builds a pipeline from options, constructing the provider stack
func New(opts Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}

	translator, err := translate.NewTranslator(opts.Translation, opts.ChunkSize)
	if err != nil {
		return nil, err
	}
	return newPipeline(opts, translator), nil
}

// NewWithTranslator builds a pipeline around an existing translator
func NewWithTranslator(opts Options, translator *translate.Translator) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}
	return newPipeline(opts, translator), nil
}

func newPipeline(opts Options, translator *translate.Translator) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(opts.Root, cache.DefaultDirName)
	}
	if opts.Mode == "" {
		opts.Mode = "dir"
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = splitter.DefaultChunkSize
	}

	return &Pipeline{
		opts:       opts,
		translator: translator,
		matcher:    ignore.NewMatcher(opts.Root, opts.IgnorePatterns, opts.CacheDir),
		cache:      cache.New(opts.CacheDir, opts.Translation.TargetLang, chunkSize),
		state:      state.NewStore(opts.Root),
		repo:       git.NewRepo(opts.Root),
	}
}

// Run executes the pipeline: enumerate candidates, filter unchanged
// files, translate with bounded concurrency, then record the
// incremental checkpoint and optionally commit. Per-file failures are
// reported in the summary and never abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if err := p.translator.IsAvailable(); err != nil {
		return nil, fmt.Errorf("provider %s is not available: %w", p.translator.ProviderName(), err)
	}
	if p.opts.OutputDir != "" {
		if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	candidates, err := p.enumerate()
	if err != nil {
		return nil, err
	}
	report.Candidates = len(candidates)

	head, headOK := p.repo.CurrentCommit()

	work := candidates
	if p.opts.Incremental {
		work = p.filterChanged(candidates, head, headOK, report)
	}

	if len(work) == 0 {
		fmt.Println("No files to translate")
	} else {
		p.translateAll(ctx, work, report)
	}

	if ctx.Err() != nil {
		// Interrupted: leave the checkpoint alone so the next run
		// picks up where this one stopped.
		report.Duration = time.Since(start)
		p.printSummary(report)
		return report, ctx.Err()
	}

	if p.opts.Incremental && headOK {
		p.writeCheckpoint(head, len(work), report)
	}
	if p.opts.Commit {
		p.commitOutputs(report)
	}
	p.recordHistory(start, report)

	report.Duration = time.Since(start)
	p.printSummary(report)

	return report, nil
}

// enumerate walks the root and returns eligible files as sorted
// slash-separated paths relative to the root
func (p *Pipeline) enumerate() ([]string, error) {
	targetLang := p.opts.Translation.TargetLang

	var files []string
	err := filepath.WalkDir(p.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(p.opts.Root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p.matcher.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !internal.IsSupportedFile(rel) || internal.IsOutputPath(rel, targetLang) {
			return nil
		}
		if p.matcher.Match(rel, false) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", p.opts.Root, err)
	}

	sort.Strings(files)
	return files, nil
}

// filterChanged reduces candidates to the files changed since the last
// checkpoint. Any uncertainty (no repository, no usable checkpoint,
// changed ignore rules, failed diff) falls back to the full set.
func (p *Pipeline) filterChanged(candidates []string, head string, headOK bool, report *Report) []string {
	if !headOK {
		fmt.Fprintf(os.Stderr, "Warning: %s is not a git repository, translating everything\n", p.opts.Root)
		return candidates
	}

	checkpoint, ok := p.state.Read()
	if !ok || checkpoint.LastCommit == "" {
		fmt.Println("No previous state found, translating everything")
		return candidates
	}

	if checkpoint.IgnoreHash != p.matcher.Fingerprint() {
		fmt.Println("Ignore rules changed since the last run, translating everything")
		return candidates
	}

	if checkpoint.LastCommit == head {
		fmt.Println("No new commits since the last run")
		report.Unchanged = len(candidates)
		return nil
	}

	changed, err := p.repo.ChangedFiles(checkpoint.LastCommit, head)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine changed files (%v), translating everything\n", err)
		return candidates
	}

	changedSet := make(map[string]bool, len(changed))
	for _, path := range changed {
		changedSet[filepath.ToSlash(path)] = true
	}

	var work []string
	for _, rel := range candidates {
		if changedSet[rel] {
			work = append(work, rel)
		} else {
			report.Unchanged++
		}
	}

	fmt.Printf("%d of %d file(s) changed since %s\n", len(work), len(candidates), shortHash(checkpoint.LastCommit))
	return work
}

// translateAll dispatches bounded-parallel per-file jobs and collects
// their outcomes into the report. Job failures stay in their slot and
// never cancel sibling jobs.
func (p *Pipeline) translateAll(ctx context.Context, work []string, report *Report) {
	fmt.Printf("Translating %d file(s) to %s with %d worker(s)\n",
		len(work), p.opts.Translation.TargetLang, p.opts.Concurrency)

	type outcome struct {
		output   string
		cacheHit bool
		err      error
	}
	outcomes := make([]outcome, len(work))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, rel := range work {
		fmt.Printf("Translating (%d/%d): %s\n", i+1, len(work), rel)
		g.Go(func() error {
			output, cacheHit, err := p.translateFile(gctx, rel)
			outcomes[i] = outcome{output: output, cacheHit: cacheHit, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, rel := range work {
		o := outcomes[i]
		switch {
		case o.err != nil:
			fmt.Fprintf(os.Stderr, "Error translating %s: %v\n", rel, o.err)
			report.Failed++
			report.Failures = append(report.Failures, FileFailure{Path: rel, Err: o.err})
		case o.cacheHit:
			report.CacheHits++
			report.Outputs = append(report.Outputs, o.output)
		default:
			report.Translated++
			report.Outputs = append(report.Outputs, o.output)
		}
	}
}

// translateFile produces the translated counterpart of one file and
// returns its output path and whether the cache served it
func (p *Pipeline) translateFile(ctx context.Context, rel string) (string, bool, error) {
	content, err := os.ReadFile(filepath.Join(p.opts.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", false, fmt.Errorf("failed to read file: %w", err)
	}

	outputRel := internal.OutputPath(rel, p.opts.Translation.TargetLang)
	outputAbs := filepath.Join(p.opts.Root, filepath.FromSlash(outputRel))
	if p.opts.OutputDir != "" {
		outputAbs = filepath.Join(p.opts.OutputDir, filepath.FromSlash(outputRel))
	}

	if !p.opts.NoCache {
		if translated, ok := p.cache.Get(content); ok {
			if err := writeOutput(outputAbs, translated); err != nil {
				return "", false, err
			}
			return outputRel, true, nil
		}
	}

	translated, err := p.translator.TranslateContent(ctx, string(content), rel)
	if err != nil {
		return "", false, err
	}
	if translated != "" && !strings.HasSuffix(translated, "\n") {
		translated += "\n"
	}

	if err := writeOutput(outputAbs, []byte(translated)); err != nil {
		return "", false, err
	}

	if !p.opts.NoCache {
		if err := p.cache.Put(content, []byte(translated)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to cache %s: %v\n", rel, err)
		}
	}

	return outputRel, false, nil
}

// writeCheckpoint persists {head, fingerprint} when the run made
// forward progress, or when nothing was left to do but the stored
// revision or rule fingerprint is stale
func (p *Pipeline) writeCheckpoint(head string, workLen int, report *Report) {
	fingerprint := p.matcher.Fingerprint()

	write := false
	if report.Translated+report.CacheHits > 0 {
		write = true
	} else if workLen == 0 && report.Failed == 0 {
		checkpoint, ok := p.state.Read()
		if !ok || checkpoint.LastCommit != head || checkpoint.IgnoreHash != fingerprint {
			write = true
		}
	}
	if !write {
		return
	}

	err := p.state.Write(state.Checkpoint{LastCommit: head, IgnoreHash: fingerprint})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write state file: %v\n", err)
	}
}

// commitOutputs stages the produced outputs plus the state file and
// cache directory, commits, and optionally pushes. Failures are
// reported but never undo the translation results.
func (p *Pipeline) commitOutputs(report *Report) {
	if report.Translated+report.CacheHits == 0 {
		return
	}
	if p.opts.OutputDir != "" {
		fmt.Fprintln(os.Stderr, "Warning: skipping commit, outputs were written outside the root")
		return
	}

	paths := make([]string, 0, len(report.Outputs)+2)
	paths = append(paths, report.Outputs...)
	if _, err := os.Stat(p.state.Path()); err == nil {
		paths = append(paths, state.FileName)
	}
	if !p.opts.NoCache {
		if rel, err := filepath.Rel(p.opts.Root, p.cache.Dir()); err == nil && !strings.HasPrefix(rel, "..") {
			if _, err := os.Stat(p.cache.Dir()); err == nil {
				paths = append(paths, filepath.ToSlash(rel))
			}
		}
	}

	message := p.opts.CommitMessage
	if message == "" {
		message = fmt.Sprintf("Translate %d file(s) to %s",
			report.Translated+report.CacheHits, p.opts.Translation.TargetLang)
	}

	if err := p.repo.Commit(paths, message); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: commit failed: %v\n", err)
		return
	}
	if head, ok := p.repo.CurrentCommit(); ok {
		report.Commit = head
	}
	fmt.Printf("Committed translation updates (%s)\n", shortHash(report.Commit))

	if p.opts.Push {
		fmt.Println("Pushing to remote...")
		if err := p.repo.Push(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: push failed: %v\n", err)
		}
	}
}

// recordHistory appends the run to the history database, non-fatal
func (p *Pipeline) recordHistory(start time.Time, report *Report) {
	if p.opts.NoHistory {
		return
	}

	store, err := history.Open(filepath.Join(p.opts.Root, history.DefaultFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open history database: %v\n", err)
		return
	}
	defer store.Close()

	run := history.Run{
		StartedAt:  start,
		Duration:   time.Since(start),
		Mode:       p.opts.Mode,
		TargetLang: p.opts.Translation.TargetLang,
		Candidates: report.Candidates,
		Translated: report.Translated,
		CacheHits:  report.CacheHits,
		Skipped:    report.Unchanged,
		Failed:     report.Failed,
		Commit:     report.Commit,
	}
	if err := store.RecordRun(run); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
	}
}

func (p *Pipeline) printSummary(report *Report) {
	fmt.Printf("\n=== Translation Summary ===\n")
	fmt.Printf("Candidates: %d\n", report.Candidates)
	if report.Unchanged > 0 {
		fmt.Printf("Skipped (unchanged): %d\n", report.Unchanged)
	}
	fmt.Printf("Translated: %d\n", report.Translated)
	if report.CacheHits > 0 {
		fmt.Printf("From cache: %d\n", report.CacheHits)
	}
	if report.Failed > 0 {
		fmt.Printf("Failed: %d\n", report.Failed)
	}
	fmt.Printf("Duration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Printf("===========================\n")
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
