// Package git shells out to git for change detection and commit integration
package git
