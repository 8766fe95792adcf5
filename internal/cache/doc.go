// Package cache stores translation results addressed by content hash
package cache
