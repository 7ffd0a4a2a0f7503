// Package catalog implements the append-only record store.
//
// The store is a CSV file with a fixed, versioned header. Schema versions only
// ever append columns, so a torn final row can be discarded without reference
// to the version that wrote it. Every Append is written and fsynced before the
// record becomes visible to Contains; a failed write is truncated back to the
// previous row boundary and retried a bounded number of times.
//
// A single process may hold the store open. Open takes an advisory lock on
// "<catalog>.lock" and fails with ErrLocked if another writer holds it.
//
// Validate and Repair operate on closed files and are used both at startup
// and by the "validate" CLI command. Records, ComputeStats, and Export are
// read-only helpers over the same format.
package catalog
