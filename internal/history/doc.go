// Package history records pipeline runs in a local SQLite database
package history
