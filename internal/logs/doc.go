// Package logs reads the per-run log files written under the log directory.
//
// Last returns the final lines of a log with bounded memory, Follow polls for
// lines appended afterwards, and Latest locates the newest run log so
// `soundcatalog logs` works without a run ID. Only complete lines are
// returned; a line still being written is picked up on the next poll.
package logs
