package buildenv

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/aitdocs/internal"
	"codeberg.org/snonux/aitdocs/internal/cache"
	"codeberg.org/snonux/aitdocs/internal/ignore"
)

// BackupSuffix marks source files set aside while their translations
// take their place.
const BackupSuffix = ".aitdocs.bak"

// skipDirs are pruned from the swap scan
var skipDirs = map[string]bool{cache.DefaultDirName: true}

func init() {
	for _, pattern := range ignore.DefaultPatterns {
		skipDirs[strings.TrimSuffix(pattern, "/")] = true
	}
}

// Prepare swaps translated files into the place of their sources below
// root. Each source is renamed aside with BackupSuffix and replaced by a
// copy of its translated sibling, so the translated file itself stays
// where it is. Sources without a translation or with an existing backup
// are skipped, which makes running Prepare twice safe. Returns the paths
// that now hold translated content.
func Prepare(root, targetLang string) ([]string, error) {
	var swapped []string

	err := walkFiles(root, func(path string) error {
		if !internal.IsSupportedFile(path) || internal.IsOutputPath(path, targetLang) {
			return nil
		}

		// Only swap when a translated sibling exists
		translated := internal.OutputPath(path, targetLang)
		if _, err := os.Stat(translated); err != nil {
			return nil
		}

		backup := path + BackupSuffix
		if _, err := os.Stat(backup); err == nil {
			return nil
		}

		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
		if err := copyFile(translated, path); err != nil {
			// Undo the backup so the source path never goes missing
			os.Rename(backup, path)
			return fmt.Errorf("failed to swap in %s: %w", translated, err)
		}

		swapped = append(swapped, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swapped, nil
}

// Restore moves backed up sources below root back over the translated
// copies that replaced them. Paths without a backup are left alone, so
// running Restore twice is safe. Returns the restored source paths.
func Restore(root string) ([]string, error) {
	var restored []string

	err := walkFiles(root, func(path string) error {
		source, ok := strings.CutSuffix(path, BackupSuffix)
		if !ok {
			return nil
		}

		if err := os.Rename(path, source); err != nil {
			return fmt.Errorf("failed to restore %s: %w", source, err)
		}

		restored = append(restored, source)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// walkFiles calls fn for every file below root, pruning version control
// and cache directories
func walkFiles(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(path)
	})
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
