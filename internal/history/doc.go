// Package history keeps a SQLite ledger of pipeline runs.
//
// Each run's summary and per-file failures are recorded once the run ends,
// whether it finished, was interrupted, or failed. The catalog itself stays
// the source of truth for which files are done; the ledger only answers
// "what happened in past runs" for the runs command.
package history
