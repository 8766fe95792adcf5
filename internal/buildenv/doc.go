// Package buildenv swaps translated files into the place of their
// sources so documentation builds pick up translated content, and swaps
// the originals back in afterwards.
package buildenv
