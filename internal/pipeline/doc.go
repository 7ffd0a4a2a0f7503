// Package pipeline runs the catalog batch state machine.
//
// A run moves through Idle, Scanning, then repeated ExtractingBatch,
// ClassifyingBatch, and PersistingBatch steps, then Draining and Done.
// Failed is reachable from any step when the record store cannot be written.
//
// Files within a batch are extracted in parallel and persisted in scan order.
// Per-file problems become FileFailure entries in the Summary and never stop
// the batch. Cancelling the context is a cooperative stop: the in-flight
// batch completes, no further batch starts, and a final snapshot is taken.
// Every run, including a failed one, returns a Summary reflecting the
// progress made so a later resume can pick up where it stopped.
package pipeline
