package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultDirName is the cache directory created under the processing root.
const DefaultDirName = ".aitdocs_cache"

// keySchema versions the key derivation. Bump it when the derivation or
// the chunking semantics change incompatibly.
const keySchema = "v1"

// Cache is a content-addressed store of translations: one file per key in
// a flat directory, filename equal to the hex key. The key covers the
// target language and the chunk size as well as the raw content, so a
// populated cache never serves a translation for the wrong language or a
// different chunking.
type Cache struct {
	dir        string
	targetLang string
	chunkSize  int
}

// New returns a Cache rooted at dir for one target language and chunk
// size. The directory is created lazily on the first Put.
func New(dir, targetLang string, chunkSize int) *Cache {
	return &Cache{dir: dir, targetLang: targetLang, chunkSize: chunkSize}
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the cached translation for content, or ok=false on a miss.
// Any read problem is a miss, never an error.
func (c *Cache) Get(content []byte) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(c.dir, c.key(content)))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores translated under content's key. Writing the same key again
// replaces the entry (last writer wins). The write goes to a temp file in
// the cache directory first and is renamed into place, so a reader never
// observes a torn entry.
func (c *Cache) Put(content, translated []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".aitdocs-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(translated); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(c.dir, c.key(content))); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	success = true

	return nil
}

// key derives the content address: a SHA-256 over the schema version, the
// target language, the chunk size, and the exact content bytes.
func (c *Cache) key(content []byte) string {
	h := sha256.New()
	h.Write([]byte(keySchema))
	h.Write([]byte{0})
	h.Write([]byte(c.targetLang))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(c.chunkSize)))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
