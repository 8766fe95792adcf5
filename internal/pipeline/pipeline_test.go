package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/snonux/aitdocs/internal/history"
	"codeberg.org/snonux/aitdocs/internal/state"
	"codeberg.org/snonux/aitdocs/internal/testutil"
	"codeberg.org/snonux/aitdocs/internal/translate"
)

func testTranslationConfig() *translate.Config {
	return &translate.Config{
		Provider:   translate.ProviderOpenAI,
		APIKey:     "test-key",
		SourceLang: translate.SourceAuto,
		TargetLang: "en",
		MaxRetries: 1,
	}
}

// newTestPipeline builds a pipeline over root backed by a mock provider
func newTestPipeline(t *testing.T, root string, modify func(*Options)) (*Pipeline, *testutil.MockProvider) {
	t.Helper()

	config := testTranslationConfig()
	opts := Options{
		Root:        root,
		Translation: config,
		Concurrency: 2,
		NoHistory:   true,
	}
	if modify != nil {
		modify(&opts)
	}

	mock := &testutil.MockProvider{}
	translator := translate.NewTranslatorWithProvider(mock, config, opts.ChunkSize)

	p, err := NewWithTranslator(opts, translator)
	if err != nil {
		t.Fatalf("NewWithTranslator failed: %v", err)
	}
	return p, mock
}

func TestOptionsValidate(t *testing.T) {
	valid := Options{Root: "/tmp/docs", Translation: testTranslationConfig()}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}

	missingRoot := Options{Translation: testTranslationConfig()}
	if err := missingRoot.Validate(); err == nil {
		t.Error("expected error for missing root")
	}

	pushOnly := Options{Root: "/tmp/docs", Translation: testTranslationConfig(), Push: true}
	if err := pushOnly.Validate(); err == nil {
		t.Error("expected error for push without commit")
	}
}

func TestRunTranslatesDirectory(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"docs/guide.md": "# Hello\n\nSome text.\n",
		"src/app.ts":    "console.log(\"здравей\");\n",
		"notes.txt":     "not translatable\n",
	})

	p, mock := newTestPipeline(t, root, nil)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2", report.Candidates)
	}
	if report.Translated != 2 || report.Failed != 0 {
		t.Errorf("Translated = %d, Failed = %d", report.Translated, report.Failed)
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", mock.CallCount())
	}

	testutil.AssertFileContent(t, filepath.Join(root, "docs/guide_en.md"),
		[]byte("[en] # Hello\n\nSome text.\n"))
	testutil.AssertFileContent(t, filepath.Join(root, "src/app_en.ts"),
		[]byte("[en] console.log(\"здравей\");\n"))
	testutil.AssertFileNotExists(t, filepath.Join(root, "notes_en.txt"))
}

func TestRunSkipsIgnoredAndExistingOutputs(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		".gitignore":    "drafts/\n*.wip.md\n",
		"a.md":          "# A\n",
		"a_en.md":       "old output\n",
		"b.wip.md":      "# WIP\n",
		"drafts/c.md":   "# C\n",
		"docs/guide.md": "# Guide\n",
	})

	p, mock := newTestPipeline(t, root, nil)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2 (a.md and docs/guide.md)", report.Candidates)
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", mock.CallCount())
	}
	testutil.AssertFileNotExists(t, filepath.Join(root, "b.wip_en.md"))
	testutil.AssertFileNotExists(t, filepath.Join(root, "drafts/c_en.md"))

	// The stale output gets regenerated as a.md's sibling
	testutil.AssertFileContent(t, filepath.Join(root, "a_en.md"), []byte("[en] # A\n"))
}

// Scenario: incremental mode with no prior checkpoint processes
// everything and records a checkpoint afterwards.
func TestRunIncrementalFirstRun(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"README.md": "# Readme\n",
	})
	testutil.InitGitRepo(t, root)
	head := testutil.CommitAll(t, root, "initial")

	// One untracked file on top of the committed one
	testutil.CreateTestFile(t, filepath.Join(root, "docs/new.md"), []byte("# New\n"))

	p, mock := newTestPipeline(t, root, func(o *Options) { o.Incremental = true })
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Translated != 2 || report.Unchanged != 0 {
		t.Errorf("Translated = %d, Unchanged = %d, want 2 and 0", report.Translated, report.Unchanged)
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", mock.CallCount())
	}

	checkpoint, ok := state.NewStore(root).Read()
	if !ok {
		t.Fatal("expected a checkpoint after the first incremental run")
	}
	if checkpoint.LastCommit != head {
		t.Errorf("checkpoint commit = %q, want %q", checkpoint.LastCommit, head)
	}
	if checkpoint.IgnoreHash == "" {
		t.Error("checkpoint fingerprint is empty")
	}
}

// Scenario: nothing changed between two incremental runs, second run
// does no translation work.
func TestRunIncrementalNoChanges(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})
	testutil.InitGitRepo(t, root)
	testutil.CommitAll(t, root, "initial")

	p, mock := newTestPipeline(t, root, func(o *Options) { o.Incremental = true })
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	firstCalls := mock.CallCount()

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if mock.CallCount() != firstCalls {
		t.Errorf("second run made %d extra provider calls", mock.CallCount()-firstCalls)
	}
	if report.Translated != 0 || report.CacheHits != 0 {
		t.Errorf("second run translated %d, cached %d, want 0 and 0", report.Translated, report.CacheHits)
	}
	if report.Unchanged != report.Candidates {
		t.Errorf("Unchanged = %d, Candidates = %d, want all skipped", report.Unchanged, report.Candidates)
	}
}

// Scenario: one file changes between runs, only that file is redone.
func TestRunIncrementalOnlyChangedFile(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
		"b.md": "# Beta\n",
	})
	testutil.InitGitRepo(t, root)
	testutil.CommitAll(t, root, "initial")

	p, mock := newTestPipeline(t, root, func(o *Options) { o.Incremental = true })
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	firstCalls := mock.CallCount()

	testutil.CreateTestFile(t, filepath.Join(root, "b.md"), []byte("# Beta v2\n"))
	testutil.CommitAll(t, root, "update b")

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if report.Translated != 1 || report.Unchanged != 1 {
		t.Errorf("Translated = %d, Unchanged = %d, want 1 and 1", report.Translated, report.Unchanged)
	}
	if got := mock.CallCount() - firstCalls; got != 1 {
		t.Errorf("second run made %d provider calls, want 1", got)
	}
	testutil.AssertFileContent(t, filepath.Join(root, "b_en.md"), []byte("[en] # Beta v2\n"))

	// The old translation for a.md stays in the cache untouched
	entries, err := os.ReadDir(filepath.Join(root, ".aitdocs_cache"))
	if err != nil {
		t.Fatalf("cache directory missing: %v", err)
	}
	if len(entries) < 3 {
		t.Errorf("expected at least 3 cache entries, got %d", len(entries))
	}
}

// Checkpoints belong to incremental mode; a plain full run must not
// leave one behind even inside a repository.
func TestRunNonIncrementalWritesNoCheckpoint(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})
	testutil.InitGitRepo(t, root)
	testutil.CommitAll(t, root, "initial")

	p, _ := newTestPipeline(t, root, nil)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Translated != 1 {
		t.Errorf("Translated = %d, want 1", report.Translated)
	}

	if _, ok := state.NewStore(root).Read(); ok {
		t.Error("non-incremental run must not write a checkpoint")
	}
}

// Scenario: changed ignore rules force a full pass even though the
// revision did not move.
func TestRunIncrementalIgnoreRuleChangeForcesFull(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})
	testutil.InitGitRepo(t, root)
	head := testutil.CommitAll(t, root, "initial")

	p, _ := newTestPipeline(t, root, func(o *Options) { o.Incremental = true })
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	before, ok := state.NewStore(root).Read()
	if !ok {
		t.Fatal("expected a checkpoint after the first run")
	}

	p2, mock2 := newTestPipeline(t, root, func(o *Options) {
		o.Incremental = true
		o.IgnorePatterns = []string{"*.draft.md"}
	})
	report, err := p2.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if report.Unchanged != 0 {
		t.Errorf("Unchanged = %d, want 0 (full pass forced)", report.Unchanged)
	}
	if report.Translated+report.CacheHits != report.Candidates {
		t.Errorf("full pass expected, got %+v", report)
	}
	// Unchanged content comes out of the cache without provider calls
	if mock2.CallCount() != 0 {
		t.Errorf("second run made %d provider calls, want 0 (cache)", mock2.CallCount())
	}

	after, ok := state.NewStore(root).Read()
	if !ok {
		t.Fatal("expected a checkpoint after the second run")
	}
	if after.IgnoreHash == before.IgnoreHash {
		t.Error("checkpoint fingerprint was not refreshed")
	}
	if after.LastCommit != head {
		t.Errorf("checkpoint commit = %q, want %q", after.LastCommit, head)
	}
}

func TestRunWithoutCache(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})

	p, mock := newTestPipeline(t, root, func(o *Options) { o.NoCache = true })
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2 (no caching)", mock.CallCount())
	}
	testutil.AssertFileNotExists(t, filepath.Join(root, ".aitdocs_cache"))
}

func TestRunServesRepeatsFromCache(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})

	p, mock := newTestPipeline(t, root, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "a_en.md")); err != nil {
		t.Fatal(err)
	}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if report.CacheHits != 1 || report.Translated != 0 {
		t.Errorf("CacheHits = %d, Translated = %d, want 1 and 0", report.CacheHits, report.Translated)
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider calls = %d, want 1", mock.CallCount())
	}
	testutil.AssertFileContent(t, filepath.Join(root, "a_en.md"), []byte("[en] # Alpha\n"))
}

func TestRunIsolatesJobFailures(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
		"b.md": "# Beta\n",
	})

	p, mock := newTestPipeline(t, root, nil)
	mock.Errors = map[string]error{"# Alpha": errors.New("rate limited")}

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Failed != 1 || report.Translated != 1 {
		t.Errorf("Failed = %d, Translated = %d, want 1 and 1", report.Failed, report.Translated)
	}
	if len(report.Failures) != 1 || report.Failures[0].Path != "a.md" {
		t.Fatalf("Failures = %+v", report.Failures)
	}
	if !strings.Contains(report.Failures[0].Err.Error(), "rate limited") {
		t.Errorf("failure should carry the cause: %v", report.Failures[0].Err)
	}

	testutil.AssertFileNotExists(t, filepath.Join(root, "a_en.md"))
	testutil.AssertFileContent(t, filepath.Join(root, "b_en.md"), []byte("[en] # Beta\n"))
}

func TestRunStopsOnCancel(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})
	testutil.InitGitRepo(t, root)
	testutil.CommitAll(t, root, "initial")

	p, mock := newTestPipeline(t, root, func(o *Options) { o.Incremental = true })
	mock.Delay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	if err == nil {
		t.Fatal("expected an error from the canceled run")
	}

	if _, ok := state.NewStore(root).Read(); ok {
		t.Error("canceled run must not write a checkpoint")
	}
}

func TestRunWritesIntoOutputDir(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"docs/a.md": "# Alpha\n",
	})
	outputDir := filepath.Join(t.TempDir(), "translated")

	p, _ := newTestPipeline(t, root, func(o *Options) { o.OutputDir = outputDir })
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	testutil.AssertFileContent(t, filepath.Join(outputDir, "docs/a_en.md"), []byte("[en] # Alpha\n"))
	testutil.AssertFileNotExists(t, filepath.Join(root, "docs/a_en.md"))
}

func TestRunCommitsOutputs(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})
	testutil.InitGitRepo(t, root)
	oldHead := testutil.CommitAll(t, root, "initial")

	p, _ := newTestPipeline(t, root, func(o *Options) {
		o.Incremental = true
		o.Commit = true
		o.CommitMessage = "Add translations"
	})
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Commit == "" || report.Commit == oldHead {
		t.Fatalf("expected a new commit, got %q", report.Commit)
	}

	show := testutil.RunGit(t, root, "show", "--name-only", "--pretty=format:%s", "HEAD")
	if !strings.Contains(show, "Add translations") {
		t.Errorf("commit message missing: %s", show)
	}
	if !strings.Contains(show, "a_en.md") {
		t.Errorf("output file not committed: %s", show)
	}
	if !strings.Contains(show, state.FileName) {
		t.Errorf("state file not committed: %s", show)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})

	p, _ := newTestPipeline(t, root, func(o *Options) { o.NoHistory = false })
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	store, err := history.Open(filepath.Join(root, history.DefaultFileName))
	if err != nil {
		t.Fatalf("history database missing: %v", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Mode != "dir" || runs[0].TargetLang != "en" || runs[0].Translated != 1 {
		t.Errorf("recorded run = %+v", runs[0])
	}
}

// slowProvider tracks how many calls run at the same time
type slowProvider struct {
	mu      sync.Mutex
	current int
	max     int
}

func (s *slowProvider) Translate(ctx context.Context, req translate.Request) (string, error) {
	s.mu.Lock()
	s.current++
	if s.current > s.max {
		s.max = s.current
	}
	s.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	s.mu.Lock()
	s.current--
	s.mu.Unlock()
	return "done", nil
}

func (s *slowProvider) Name() string { return "slow" }

func (s *slowProvider) IsAvailable() error { return nil }

func TestRunBoundsConcurrency(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md", "f.md"} {
		files[name] = "# " + name + "\n"
	}
	root := testutil.CreateDocTree(t, files)

	slow := &slowProvider{}
	config := testTranslationConfig()
	translator := translate.NewTranslatorWithProvider(slow, config, 0)

	p, err := NewWithTranslator(Options{
		Root:        root,
		Translation: config,
		Concurrency: 2,
		NoCache:     true,
		NoHistory:   true,
	}, translator)
	if err != nil {
		t.Fatalf("NewWithTranslator failed: %v", err)
	}

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if slow.max > 2 {
		t.Errorf("max parallel calls = %d, want at most 2", slow.max)
	}
}

func TestRunProviderUnavailable(t *testing.T) {
	root := testutil.CreateDocTree(t, map[string]string{
		"a.md": "# Alpha\n",
	})

	p, mock := newTestPipeline(t, root, nil)
	mock.AvailableErr = errors.New("API key not found")

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for unavailable provider")
	}
	if mock.CallCount() != 0 {
		t.Errorf("no translation should run, got %d calls", mock.CallCount())
	}
	testutil.AssertFileNotExists(t, filepath.Join(root, "a_en.md"))
}
