package splitter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the default chunk limit in bytes.
const DefaultChunkSize = 2000

// Joiner reassembles translated chunks back into one document.
const Joiner = "\n\n"

// Chunk is one translation unit of a document. Ordinal is the position in
// document order. Code marks chunks that consist entirely of fenced code,
// or whole source files that bypass splitting.
type Chunk struct {
	Ordinal int
	Text    string
	Code    bool
}

// Splitter splits Markdown content into chunks of at most limit bytes.
// Fenced code blocks are kept intact even when that exceeds the limit.
type Splitter struct {
	limit int
}

// New returns a Splitter with the given byte limit. Non-positive limits
// fall back to DefaultChunkSize.
func New(limit int) *Splitter {
	if limit <= 0 {
		limit = DefaultChunkSize
	}
	return &Splitter{limit: limit}
}

var headingRe = regexp.MustCompile(`^#{1,6}[ \t]`)

// Split divides content into chunks. Lines are accumulated in order;
// outside a fence a chunk is flushed when the next line would push it past
// the limit, and a heading line is a preferred split point once the chunk
// has grown past half the limit. Fence delimiter lines and everything
// between them are appended verbatim, so an open fence and its close
// always share a chunk. Oversized fence-free chunks are re-split on
// paragraph boundaries afterwards.
func (s *Splitter) Split(content string) []Chunk {
	var chunks []Chunk
	for _, text := range s.splitLines(content) {
		if len(text) > s.limit && !containsFence(text) {
			for _, piece := range s.splitParagraphs(text) {
				chunks = appendChunk(chunks, piece)
			}
			continue
		}
		chunks = appendChunk(chunks, text)
	}
	return chunks
}

// WholeFile wraps content as a single code chunk. Source code files are
// never split on Markdown heuristics.
func WholeFile(content string) []Chunk {
	return []Chunk{{Ordinal: 0, Text: content, Code: true}}
}

// Join reassembles translated chunk texts into one document.
func Join(texts []string) string {
	return strings.Join(texts, Joiner)
}

// splitLines does the line-based pass and returns raw chunk texts.
func (s *Splitter) splitLines(content string) []string {
	var chunks []string
	var current strings.Builder
	openFence := ""

	flush := func() {
		text := strings.TrimRightFunc(current.String(), unicode.IsSpace)
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, text)
		}
		current.Reset()
	}
	appendLine := func(line string) {
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}

	for _, line := range strings.Split(content, "\n") {
		// Fence delimiter lines count as fence content: a close marker
		// must land in the same chunk as the body it terminates.
		fenceLine := false
		if marker := fenceMarker(line); marker != "" {
			if openFence == "" {
				openFence = marker
				fenceLine = true
			} else if strings.HasPrefix(line, openFence) {
				openFence = ""
				fenceLine = true
			}
		}

		if fenceLine || openFence != "" {
			appendLine(line)
			continue
		}

		grown := current.Len() + len(line)
		if current.Len() > 0 {
			grown++
		}
		switch {
		case grown > s.limit:
			flush()
			appendLine(line)
		case headingRe.MatchString(line) && current.Len() > s.limit/2:
			flush()
			appendLine(line)
		default:
			appendLine(line)
		}
	}
	flush()

	return chunks
}

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// splitParagraphs re-splits an oversized fence-free chunk on blank-line
// boundaries. A single paragraph over the limit is cut into successive
// limit-sized slices, each cut backed up to a rune boundary so multibyte
// characters survive.
func (s *Splitter) splitParagraphs(text string) []string {
	var pieces []string
	start := 0
	for _, sep := range paragraphRe.FindAllStringIndex(text, -1) {
		pieces = append(pieces, text[start:sep[1]])
		start = sep[1]
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}

	var out []string
	var current strings.Builder
	flush := func() {
		t := strings.TrimRightFunc(current.String(), unicode.IsSpace)
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
		current.Reset()
	}

	for _, piece := range pieces {
		if current.Len()+len(piece) > s.limit {
			flush()
			for len(piece) > s.limit {
				cut := runeBoundary(piece, s.limit)
				slice := strings.TrimRightFunc(piece[:cut], unicode.IsSpace)
				if strings.TrimSpace(slice) != "" {
					out = append(out, slice)
				}
				piece = piece[cut:]
			}
		}
		current.WriteString(piece)
	}
	flush()

	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// runeBoundary returns the largest cut at most limit that does not land
// inside a multibyte sequence.
func runeBoundary(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return cut
}

// fenceMarker returns the three-byte fence marker opening or closing on
// this line, or the empty string.
func fenceMarker(line string) string {
	if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
		return line[:3]
	}
	return ""
}

// containsFence reports whether any line in text is a fence delimiter.
func containsFence(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if fenceMarker(line) != "" {
			return true
		}
	}
	return false
}

// appendChunk adds text as the next chunk, assigning its ordinal and
// marking all-code chunks.
func appendChunk(chunks []Chunk, text string) []Chunk {
	return append(chunks, Chunk{
		Ordinal: len(chunks),
		Text:    text,
		Code:    isCodeOnly(text),
	})
}

// isCodeOnly reports whether text is nothing but fenced code blocks and
// blank lines.
func isCodeOnly(text string) bool {
	openFence := ""
	sawFence := false
	for _, line := range strings.Split(text, "\n") {
		if openFence != "" {
			if strings.HasPrefix(line, openFence) {
				openFence = ""
			}
			continue
		}
		if marker := fenceMarker(line); marker != "" {
			openFence = marker
			sawFence = true
			continue
		}
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return sawFence && openFence == ""
}
