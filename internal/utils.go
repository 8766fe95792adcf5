package internal

import (
	"path/filepath"
	"strings"
)

// markdownExtensions are document formats that get split into chunks
// before translation.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
}

// codeExtensions are source formats that travel to the model as a
// single unit so surrounding code stays intact.
var codeExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// IsMarkdownFile reports whether path has a Markdown document extension
func IsMarkdownFile(path string) bool {
	return markdownExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsCodeFile reports whether path has a source code extension
func IsCodeFile(path string) bool {
	return codeExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupportedFile reports whether path is a candidate for translation
func IsSupportedFile(path string) bool {
	return IsMarkdownFile(path) || IsCodeFile(path)
}

// OutputPath returns the translated sibling for path, e.g.
// docs/guide.md with target "en" becomes docs/guide_en.md
func OutputPath(path, targetLang string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_" + targetLang + ext
}

// IsOutputPath reports whether path looks like a file produced by
// OutputPath for the given target language. Such files are never
// translated again.
func IsOutputPath(path, targetLang string) bool {
	if !IsSupportedFile(path) {
		return false
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return strings.HasSuffix(stem, "_"+targetLang)
}
