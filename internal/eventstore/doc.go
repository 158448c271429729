// Package eventstore records build history as an append-only event log in
// SQLite and projects it into per-build summaries.
package eventstore
