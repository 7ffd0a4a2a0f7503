// Package logging builds the slog loggers soundcatalog writes with.
//
// A run logs to stderr and to its own file under the log directory, named
// after the run ID so the logs command can find it. Console output prefixes
// each line with the component; JSON output is meant for machines. Context
// helpers tag pipeline lines with the run ID and batch number.
package logging
