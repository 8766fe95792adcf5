// Package state persists the incremental run checkpoint
package state
