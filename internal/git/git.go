package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnknown signals that the repository state could not be determined:
// not a work tree, unknown revision, or git itself unavailable. Callers
// fall back to full processing when they see it.
var ErrUnknown = errors.New("change set unknown")

// Repo runs git against one working directory.
type Repo struct {
	dir string
}

// NewRepo returns a Repo for dir. The directory does not have to be a
// repository; operations report that per call.
func NewRepo(dir string) *Repo {
	return &Repo{dir: dir}
}

// CurrentCommit returns the HEAD commit hash. ok is false when the
// directory is not a git repository or git cannot be run.
func (r *Repo) CurrentCommit() (string, bool) {
	out, err := r.runGit("rev-parse", "HEAD")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// ChangedFiles returns the paths that differ between two commits,
// relative to the repo directory and limited to files under it.
// Operational failures (missing revision, no repository, tool failure)
// are reported as ErrUnknown. Empty revision strings are caller bugs
// and return a plain error.
func (r *Repo) ChangedFiles(oldRev, newRev string) ([]string, error) {
	if oldRev == "" || newRev == "" {
		return nil, fmt.Errorf("revision must not be empty")
	}
	if oldRev == newRev {
		return nil, nil
	}

	for _, rev := range []string{oldRev, newRev} {
		if _, err := r.runGit("cat-file", "-e", rev+"^{commit}"); err != nil {
			return nil, fmt.Errorf("failed to resolve revision %s: %w", rev, ErrUnknown)
		}
	}

	out, err := r.runGit("diff", "--relative", "--name-only", oldRev, newRev)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", oldRev, newRev, ErrUnknown)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// Commit stages the given paths plus anything the caller already wrote
// under them and commits with message. Paths may be absolute or relative
// to the repository directory; a path that cannot be staged is skipped so
// one missing file never blocks the commit.
func (r *Repo) Commit(paths []string, message string) error {
	for _, p := range paths {
		rel := p
		if filepath.IsAbs(p) {
			if v, err := filepath.Rel(r.dir, p); err == nil {
				rel = v
			}
		}
		_, _ = r.runGit("add", rel)
	}

	if _, err := r.runGit("commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Push pushes the current branch to its default remote.
func (r *Repo) Push() error {
	if _, err := r.runGit("push"); err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// runGit executes one git command in the repository directory and returns
// its stdout.
func (r *Repo) runGit(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}
