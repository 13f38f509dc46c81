// Package history persists a journal of processed documents in SQLite.
//
// Each entry records where a document came from, where it was moved (if it
// was), and whether processing renamed, skipped, or failed it. The daemon
// writes entries from the worker loop; the CLI reads them for the history and
// status commands. The journal is informational only: the worker never reads
// it back to make decisions.
package history
