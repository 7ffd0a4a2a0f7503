package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreWriteFailed reports an append that still failed after the bounded retries.
	ErrStoreWriteFailed = errors.New("store write failed")
	// ErrCorruptStore reports a structurally invalid catalog file.
	ErrCorruptStore = errors.New("corrupt store")
	// ErrLocked reports that another process holds the catalog open.
	ErrLocked = errors.New("catalog is locked by another process")
	// ErrDuplicateRecord reports an append for an identity already cataloged.
	ErrDuplicateRecord = errors.New("record already cataloged")
	// ErrClosed reports use of a closed store.
	ErrClosed = errors.New("store is closed")
)

// CorruptStoreError describes where a catalog file stops being well formed.
// When Recoverable is set, truncating the file to TruncateAt discards only the
// torn final row and leaves every committed row intact.
type CorruptStoreError struct {
	Path        string
	Row         int
	TruncateAt  int64
	Recoverable bool
	Reason      string
}

func (e *CorruptStoreError) Error() string {
	kind := "unrecoverable"
	if e.Recoverable {
		kind = "recoverable"
	}
	return fmt.Sprintf("%s: %s (%s, row %d, offset %d): %s", ErrCorruptStore, e.Path, kind, e.Row, e.TruncateAt, e.Reason)
}

func (e *CorruptStoreError) Unwrap() error { return ErrCorruptStore }
