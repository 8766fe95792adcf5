package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"codeberg.org/snonux/aitdocs/internal"
	"codeberg.org/snonux/aitdocs/internal/buildenv"
	"codeberg.org/snonux/aitdocs/internal/cache"
	"codeberg.org/snonux/aitdocs/internal/history"
	"codeberg.org/snonux/aitdocs/internal/ignore"
	"codeberg.org/snonux/aitdocs/internal/models"
	"codeberg.org/snonux/aitdocs/internal/pipeline"
	"codeberg.org/snonux/aitdocs/internal/splitter"
	"codeberg.org/snonux/aitdocs/internal/translate"
	"codeberg.org/snonux/aitdocs/internal/watcher"
)

func runText(flags *Flags, arg string) error {
	text := arg
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to translate")
	}

	translator, err := translate.NewTranslator(translationConfig(flags), flags.ChunkSize)
	if err != nil {
		return err
	}

	result, err := translator.TranslateText(signalContext(), text)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}

func runFile(flags *Flags, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if !internal.IsSupportedFile(abs) {
		return fmt.Errorf("unsupported file type: %s", path)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	config := translationConfig(flags)
	translator, err := translate.NewTranslator(config, flags.ChunkSize)
	if err != nil {
		return err
	}

	fmt.Printf("Translating %s to %s...\n", path, config.TargetLang)
	translated, err := translator.TranslateContent(signalContext(), string(content), abs)
	if err != nil {
		return err
	}
	if translated != "" && !strings.HasSuffix(translated, "\n") {
		translated += "\n"
	}

	output := internal.OutputPath(abs, config.TargetLang)
	if err := os.WriteFile(output, []byte(translated), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Printf("Wrote %s\n", output)
	return nil
}

func runDir(flags *Flags, path, mode string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipelineOptions(flags, root, mode))
	if err != nil {
		return err
	}

	report, err := p.Run(signalContext())
	if err != nil {
		return err
	}
	if report.Failed > 0 && report.Translated+report.CacheHits == 0 {
		return fmt.Errorf("all %d attempted file(s) failed", report.Failed)
	}
	return nil
}

func runWatch(flags *Flags, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	opts := pipelineOptions(flags, root, "watch")

	// Surface option and provider problems before the loop starts
	if _, err := pipeline.New(opts); err != nil {
		return err
	}

	ctx := signalContext()

	// The pipeline is rebuilt per run so edited ignore files take
	// effect without a restart
	runOnce := func() {
		p, err := pipeline.New(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if _, err := p.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	// One full pass before watching
	runOnce()

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(root, cache.DefaultDirName)
	}

	return watcher.Watch(ctx, root, watcher.Options{
		Debounce:   flags.Debounce,
		Matcher:    ignore.NewMatcher(root, flags.IgnorePatterns, cacheDir),
		TargetLang: opts.Translation.TargetLang,
	}, runOnce)
}

func runBuildPrepare(flags *Flags, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	swapped, err := buildenv.Prepare(root, resolveTargetLang(flags))
	if err != nil {
		return err
	}

	for _, file := range swapped {
		fmt.Printf("Swapped in: %s\n", file)
	}
	fmt.Printf("Build environment ready, %d file(s) swapped\n", len(swapped))
	return nil
}

func runBuildRestore(path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	restored, err := buildenv.Restore(root)
	if err != nil {
		return err
	}

	for _, file := range restored {
		fmt.Printf("Restored: %s\n", file)
	}
	fmt.Printf("Build environment restored, %d file(s) put back\n", len(restored))
	return nil
}

func runModels(flags *Flags) error {
	lister := models.NewLister(translationConfig(flags))
	return lister.ListAvailableModels()
}

func runHistory(flags *Flags, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	store, err := history.Open(filepath.Join(root, history.DefaultFileName))
	if err != nil {
		return err
	}
	defer store.Close()

	return store.PrintRecent(flags.HistoryLimit)
}

// translationConfig assembles the provider configuration. The shared
// flags are bound to viper, so flag, environment, and config file
// precedence is resolved in one lookup.
func translationConfig(flags *Flags) *translate.Config {
	config := &translate.Config{
		Provider:    viper.GetString("translation.provider"),
		APIKey:      ResolveAPIKey(flags),
		BaseURL:     viper.GetString("translation.base_url"),
		Model:       viper.GetString("translation.model"),
		SourceLang:  viper.GetString("translation.source"),
		TargetLang:  viper.GetString("translation.target"),
		Temperature: float32(viper.GetFloat64("translation.temperature")),
		MaxRetries:  viper.GetInt("translation.max_retries"),
	}

	// Fall back to built-in defaults when nothing was configured
	if config.Provider == "" {
		config.Provider = flags.Provider
	}
	if config.SourceLang == "" {
		config.SourceLang = flags.SourceLang
	}
	if config.TargetLang == "" {
		config.TargetLang = flags.TargetLang
	}
	if config.BaseURL == "" && config.Provider == translate.ProviderOpenAI {
		config.BaseURL = translate.DefaultBaseURL
	}
	if config.Temperature == 0 {
		config.Temperature = translate.DefaultTemperature
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = translate.DefaultMaxRetries
	}

	return config
}

// resolveTargetLang returns the effective target language for commands
// that do not need a full provider configuration
func resolveTargetLang(flags *Flags) string {
	if target := viper.GetString("translation.target"); target != "" {
		return target
	}
	return flags.TargetLang
}

func pipelineOptions(flags *Flags, root, mode string) pipeline.Options {
	// Config file values apply when the flag was left at its default
	concurrency := flags.Concurrency
	if concurrency == pipeline.DefaultConcurrency && viper.IsSet("pipeline.concurrency") {
		concurrency = viper.GetInt("pipeline.concurrency")
	}
	chunkSize := flags.ChunkSize
	if chunkSize == splitter.DefaultChunkSize && viper.IsSet("pipeline.chunk_size") {
		chunkSize = viper.GetInt("pipeline.chunk_size")
	}

	return pipeline.Options{
		Root:           root,
		OutputDir:      flags.OutputDir,
		Translation:    translationConfig(flags),
		ChunkSize:      chunkSize,
		Concurrency:    concurrency,
		Incremental:    flags.Incremental,
		IgnorePatterns: flags.IgnorePatterns,
		NoCache:        flags.NoCache,
		CacheDir:       flags.CacheDir,
		Commit:         flags.Commit,
		CommitMessage:  flags.CommitMessage,
		Push:           flags.Push,
		NoHistory:      flags.NoHistory,
		Mode:           mode,
	}
}

// resolveRoot turns a CLI path argument into an absolute directory path
func resolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", path)
	}

	return abs, nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM
func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
