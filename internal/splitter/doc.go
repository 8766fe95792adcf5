// Package splitter divides Markdown documents into size-bounded chunks
// without breaking fenced code blocks
package splitter
