// Package preflight checks that the filesystem paths and external programs a
// catalog run depends on are usable before any file is processed.
//
// The CLI "run" command refuses to start when a required check fails, and
// "doctor" renders every check. Source roots are reported but never block: a
// missing root is skipped by the scanner with a warning.
package preflight
