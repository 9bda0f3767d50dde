// Package migrations registers every schema migration from init(). The CLI
// imports it for side effects so the runner sees them.
package migrations
