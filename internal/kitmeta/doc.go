// Package kitmeta reads human-authored sound kit metadata.
//
// A kit file holds one pipe-delimited entry per line:
//
//	filename|title|category|duration|tags|description
//
// Lines starting with '#' and blank lines are ignored; lines with fewer than
// four fields are rejected and reported. Entries with an empty filename are
// matched to audio files by title similarity instead.
package kitmeta
