// Package watcher re-runs a callback when translatable files under a
// directory change, with debouncing so bursts of writes collapse into a
// single run.
package watcher
