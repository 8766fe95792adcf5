// Package pipeline orchestrates directory translation runs: candidate
// enumeration, change detection, bounded-parallel translation, and
// checkpoint and commit integration
package pipeline
