package ignore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// IgnoreFileNames are the ignore files read from the processing root,
// in read order.
var IgnoreFileNames = []string{".gitignore", ".aitdocsignore"}

// DefaultPatterns are always part of the rule set. Trailing slashes mark
// directory-only patterns so the enumeration can prune whole subtrees.
var DefaultPatterns = []string{
	".git/",
	".svn/",
	".hg/",
	"__pycache__/",
}

// Matcher holds the merged ignore rule set for one pipeline run. It is
// immutable after construction.
type Matcher struct {
	patterns []string
}

// NewMatcher builds the rule set for root. Patterns are merged in fixed
// precedence: caller-supplied patterns, then entries from the ignore files
// in root, then the built-in defaults plus the cache directory name.
// Missing ignore files are skipped.
func NewMatcher(root string, extra []string, cacheDir string) *Matcher {
	patterns := make([]string, 0, len(extra)+len(DefaultPatterns)+1)
	patterns = append(patterns, extra...)

	for _, name := range IgnoreFileNames {
		patterns = append(patterns, readIgnoreFile(filepath.Join(root, name))...)
	}

	patterns = append(patterns, DefaultPatterns...)
	if cacheDir != "" {
		patterns = append(patterns, filepath.Base(cacheDir)+"/")
	}

	return &Matcher{patterns: patterns}
}

// readIgnoreFile returns the patterns in an ignore file, one per line,
// skipping blank lines and # comments. A missing or unreadable file
// yields no patterns.
func readIgnoreFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// Match reports whether relPath should be excluded. Patterns ending in a
// path separator apply only to directories; all other patterns apply only
// to files. Every pattern is tried against both the full relative path and
// the basename, and the first match wins.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	base := path.Base(relPath)

	for _, pattern := range m.patterns {
		if dirPattern, ok := strings.CutSuffix(pattern, "/"); ok {
			if isDir && matchPattern(dirPattern, relPath, base) {
				return true
			}
			continue
		}
		if !isDir && matchPattern(pattern, relPath, base) {
			return true
		}
	}
	return false
}

// matchPattern tries a glob against the relative path and the basename.
// Malformed patterns never match.
func matchPattern(pattern, relPath, base string) bool {
	if ok, err := path.Match(pattern, relPath); err == nil && ok {
		return true
	}
	if ok, err := path.Match(pattern, base); err == nil && ok {
		return true
	}
	return false
}

// Fingerprint returns a deterministic hash of the rule set. The pattern
// list is deduplicated and sorted first, so reordering sources never
// changes the fingerprint while adding, removing, or editing a rule
// always does.
func (m *Matcher) Fingerprint() string {
	seen := make(map[string]struct{}, len(m.patterns))
	uniq := make([]string, 0, len(m.patterns))
	for _, p := range m.patterns {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	sort.Strings(uniq)

	sum := sha256.Sum256([]byte(strings.Join(uniq, "\n")))
	return hex.EncodeToString(sum[:])
}
