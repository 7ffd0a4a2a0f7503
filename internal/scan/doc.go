// Package scan walks source roots and yields audio file candidates lazily.
//
// A scan is finite and restartable: each call to Scan walks the roots afresh
// and nothing is cached between calls. Inaccessible, empty, and duplicate
// files are reported as skip entries rather than errors so the caller can
// count them without aborting.
package scan
