package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultFileName is the history database created in the target root.
const DefaultFileName = ".aitdocs_history.db"

// Run is one recorded pipeline run
type Run struct {
	ID         int64
	StartedAt  time.Time
	Duration   time.Duration
	Mode       string
	TargetLang string
	Candidates int
	Translated int
	CacheHits  int
	Skipped    int
	Failed     int
	Commit     string
}

// Store persists pipeline runs in a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// createTables creates the runs table on first use
func (s *Store) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS runs (
		id integer PRIMARY KEY AUTOINCREMENT,
		started_at integer NOT NULL,
		duration_ms integer NOT NULL,
		mode text NOT NULL,
		target_lang text NOT NULL,
		candidates integer NOT NULL,
		translated integer NOT NULL,
		cache_hits integer NOT NULL,
		skipped integer NOT NULL,
		failed integer NOT NULL,
		commit_hash text NOT NULL
	)`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// RecordRun appends a run to the history
func (s *Store) RecordRun(run Run) error {
	query := `INSERT INTO runs (started_at, duration_ms, mode, target_lang,
		candidates, translated, cache_hits, skipped, failed, commit_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		run.StartedAt.Unix(),
		run.Duration.Milliseconds(),
		run.Mode,
		run.TargetLang,
		run.Candidates,
		run.Translated,
		run.CacheHits,
		run.Skipped,
		run.Failed,
		run.Commit,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest limit runs, newest first
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT id, started_at, duration_ms, mode, target_lang,
		candidates, translated, cache_hits, skipped, failed, commit_hash
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, durationMS int64
		err := rows.Scan(&run.ID, &started, &durationMS, &run.Mode, &run.TargetLang,
			&run.Candidates, &run.Translated, &run.CacheHits, &run.Skipped, &run.Failed, &run.Commit)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// PrintRecent writes the latest limit runs to stdout
func (s *Store) PrintRecent(limit int) error {
	runs, err := s.RecentRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	fmt.Printf("Last %d run(s):\n\n", len(runs))
	for _, run := range runs {
		commit := run.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if commit == "" {
			commit = "-"
		}
		fmt.Printf("%s  %-5s  %-4s  %3d candidates  %3d translated  %3d cached  %3d skipped  %3d failed  %8s  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.Mode, run.TargetLang,
			run.Candidates, run.Translated, run.CacheHits, run.Skipped, run.Failed,
			run.Duration.Round(time.Millisecond), commit)
	}

	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
