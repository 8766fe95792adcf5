package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the checkpoint file kept in the processing root.
const FileName = ".aitdocs_state"

// Checkpoint marks the last fully processed repository revision and the
// ignore rule fingerprint that was active at the time.
type Checkpoint struct {
	LastCommit string
	IgnoreHash string
}

// Store reads and writes the checkpoint file. Unknown JSON keys in an
// existing file survive a rewrite unmodified.
type Store struct {
	path string
}

// NewStore returns a Store for the checkpoint under root.
func NewStore(root string) *Store {
	return &Store{path: filepath.Join(root, FileName)}
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the stored checkpoint. A missing or unparseable file is
// reported as absent, never as an error: incremental mode degrades to
// full processing instead of aborting.
func (s *Store) Read() (Checkpoint, bool) {
	raw, ok := s.readRaw()
	if !ok {
		return Checkpoint{}, false
	}

	var cp Checkpoint
	if v, exists := raw["last_commit_hash"]; exists {
		_ = json.Unmarshal(v, &cp.LastCommit)
	}
	if v, exists := raw["ignore_hash"]; exists {
		_ = json.Unmarshal(v, &cp.IgnoreHash)
	}
	return cp, true
}

// Write replaces the stored checkpoint. The file is rewritten via a temp
// file in the same directory plus rename, so a crash mid-write never
// leaves a partial checkpoint behind.
func (s *Store) Write(cp Checkpoint) error {
	raw, ok := s.readRaw()
	if !ok {
		raw = make(map[string]json.RawMessage)
	}

	lastCommit, err := json.Marshal(cp.LastCommit)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	ignoreHash, err := json.Marshal(cp.IgnoreHash)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	raw["last_commit_hash"] = lastCommit
	raw["ignore_hash"] = ignoreHash

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".aitdocs-state-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	success = true

	return nil
}

// readRaw loads the checkpoint file as raw JSON, keeping unknown keys
// intact for the next Write.
func (s *Store) readRaw() (map[string]json.RawMessage, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	return raw, true
}
