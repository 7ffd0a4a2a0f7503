// Package textutil normalizes names for file identity and kit metadata lookup.
//
// FoldKey is the canonical filename form (NFC then full case folding) so the
// same file typed on macOS and Linux compares equal. Terms splits titles into
// words for fuzzy matching of kit entries that carry no filename.
package textutil
