package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sys/unix"

	"soundcatalog/internal/fileutil"
	"soundcatalog/internal/logging"
)

const (
	defaultRetryBase = 100 * time.Millisecond
	snapshotLayout   = "20060102T150405.000000000Z"
)

// Options configures an open Store.
type Options struct {
	// BackupDir receives snapshots; defaults to "backups" beside the catalog.
	BackupDir string
	// BackupKeep bounds the number of snapshots retained; 0 keeps all.
	BackupKeep int
	// MaxRetries bounds the attempts after the first failed write; 0 disables retry.
	MaxRetries int
	RetryBase  time.Duration
	// AutoRepair truncates a torn final row found at open instead of failing.
	AutoRepair bool
	Logger     *slog.Logger
	Now        func() time.Time
}

// appendFile is the subset of *os.File the append path needs.
type appendFile interface {
	io.Writer
	Sync() error
	Truncate(size int64) error
	Stat() (os.FileInfo, error)
	Close() error
}

// Store is the single-writer handle on a catalog file.
type Store struct {
	path   string
	opts   Options
	logger *slog.Logger
	lock   *flock.Flock

	mu    sync.Mutex
	file  appendFile
	known map[string]struct{}
}

// Open locks, validates, and loads the catalog at path, creating it with the
// current header when missing. Older schema versions are migrated in place
// after a snapshot of the original.
func Open(path string, opts Options) (*Store, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	if opts.BackupDir == "" {
		opts.BackupDir = filepath.Join(filepath.Dir(path), "backups")
	}
	s := &Store{
		path:   path,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "catalog"),
		lock:   flock.New(path + ".lock"),
		known:  make(map[string]struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	if err := s.prepare(); err != nil {
		_ = s.lock.Unlock()
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare() error {
	report, err := Validate(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		report, err = ValidationReport{Path: s.path}, nil
	}
	var corrupt *CorruptStoreError
	if errors.As(err, &corrupt) && corrupt.Recoverable && s.opts.AutoRepair {
		var discarded int64
		report, discarded, err = Repair(s.path)
		if err == nil {
			logging.WarnWithContext(s.logger, "discarded torn final row", "catalog_repaired",
				logging.String("catalog", s.path),
				logging.Int64("discarded_bytes", discarded),
				logging.String(logging.FieldImpact, "the file in that row will be processed again"),
				logging.String(logging.FieldErrorHint, "none; previous run was interrupted mid-write"),
			)
		}
	}
	if err != nil {
		return err
	}

	if report.Version == 0 {
		if err := s.writeHeader(); err != nil {
			return err
		}
	} else if report.Outdated() {
		if err := s.migrate(report.Version); err != nil {
			return err
		}
	}

	for rec, err := range Records(s.path) {
		if err != nil {
			return fmt.Errorf("load catalog identities: %w", err)
		}
		s.known[rec.Fingerprint] = struct{}{}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open catalog for append: %w", err)
	}
	s.file = f
	s.logger.Debug("catalog opened",
		logging.String("catalog", s.path),
		logging.Int("records", len(s.known)),
	)
	return nil
}

func (s *Store) writeHeader() error {
	return fileutil.WriteAtomic(s.path, func(w io.Writer) error {
		return writeRows(w, Header(SchemaVersion))
	})
}

func (s *Store) migrate(from int) error {
	snapshot, err := s.snapshotLocked()
	if err != nil {
		return fmt.Errorf("snapshot before migration: %w", err)
	}
	var records []Record
	for rec, err := range Records(s.path) {
		if err != nil {
			return fmt.Errorf("read catalog for migration: %w", err)
		}
		records = append(records, rec)
	}
	err = fileutil.WriteAtomic(s.path, func(w io.Writer) error {
		rows := make([][]string, 0, len(records)+1)
		rows = append(rows, Header(SchemaVersion))
		for i := range records {
			rows = append(rows, encodeFields(&records[i]))
		}
		return writeRows(w, rows...)
	})
	if err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	s.logger.Info("catalog schema migrated",
		logging.String(logging.FieldEventType, "catalog_migrated"),
		logging.Int("from_version", from),
		logging.Int("to_version", SchemaVersion),
		logging.String("snapshot", snapshot),
	)
	return nil
}

// Path returns the catalog file location.
func (s *Store) Path() string { return s.path }

// Contains reports whether a record with this fingerprint has been committed,
// in this run or any earlier one.
func (s *Store) Contains(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.known[fingerprint]
	return ok
}

// Len returns the number of committed records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.known)
}

// Append durably writes rec. The record is visible to Contains only once the
// row is written and synced. A failed attempt is truncated back to the prior
// row boundary before retrying; exhausting retries returns ErrStoreWriteFailed.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.Fingerprint) == "" {
		return fmt.Errorf("append %s: empty fingerprint", rec.Path)
	}
	var buf bytes.Buffer
	if err := writeRows(&buf, encodeFields(&rec)); err != nil {
		return fmt.Errorf("encode record %s: %w", rec.Path, err)
	}
	row := buf.Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ErrClosed
	}
	if _, dup := s.known[rec.Fingerprint]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.Path)
	}

	backoff := retry.WithMaxRetries(uint64(max(s.opts.MaxRetries, 0)), retry.NewFibonacci(s.opts.RetryBase))

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		werr := s.writeRow(row)
		if werr == nil {
			return nil
		}
		logging.WarnWithContext(s.logger, "catalog append failed", "catalog_append_retry",
			logging.String(logging.FieldPath, rec.Path),
			logging.Int("attempt", attempts),
			logging.Error(werr),
			logging.String(logging.FieldImpact, "record not yet persisted"),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the catalog volume"),
		)
		if permanentWriteError(werr) {
			return werr
		}
		return retry.RetryableError(werr)
	})
	if err != nil {
		return fmt.Errorf("%w: %s after %d attempt(s): %w", ErrStoreWriteFailed, rec.Path, attempts, err)
	}

	s.known[rec.Fingerprint] = struct{}{}
	return nil
}

func (s *Store) writeRow(row []byte) error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat catalog: %w", err)
	}
	offset := info.Size()

	if _, err := s.file.Write(row); err != nil {
		return s.rollback(offset, fmt.Errorf("write row: %w", err))
	}
	if err := s.file.Sync(); err != nil {
		return s.rollback(offset, fmt.Errorf("sync row: %w", err))
	}
	return nil
}

func (s *Store) rollback(offset int64, cause error) error {
	if err := s.file.Truncate(offset); err != nil {
		return errors.Join(cause, fmt.Errorf("truncate back to %d: %w", offset, err))
	}
	return cause
}

// Snapshot writes a verified copy of the catalog into the backup directory
// and prunes old snapshots beyond BackupKeep.
func (s *Store) Snapshot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() (string, error) {
	if err := os.MkdirAll(s.opts.BackupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	prefix, ext := snapshotAffixes(s.path)
	dst := filepath.Join(s.opts.BackupDir, prefix+s.opts.Now().UTC().Format(snapshotLayout)+ext)
	if _, err := fileutil.CopyVerified(s.path, dst); err != nil {
		return "", fmt.Errorf("snapshot catalog: %w", err)
	}
	removed, err := fileutil.PruneByName(s.opts.BackupDir, prefix, ext, s.opts.BackupKeep)
	if err != nil {
		logging.WarnWithContext(s.logger, "snapshot pruning failed", "snapshot_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old snapshots accumulate"),
			logging.String(logging.FieldErrorHint, "check permissions on the backup directory"),
		)
	}
	s.logger.Debug("snapshot written",
		logging.String("snapshot", dst),
		logging.Int("pruned", len(removed)),
	)
	return dst, nil
}

// Snapshots lists existing snapshots for a catalog path, oldest first.
func Snapshots(catalogPath, backupDir string) ([]string, error) {
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(catalogPath), "backups")
	}
	prefix, ext := snapshotAffixes(catalogPath)
	matches, err := filepath.Glob(filepath.Join(backupDir, prefix+"*"+ext))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func snapshotAffixes(catalogPath string) (prefix, ext string) {
	base := filepath.Base(catalogPath)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-", ext
}

// Lock takes the writer lock on the catalog at path without opening it, for
// maintenance such as Repair. The returned func releases it.
func Lock(path string) (func() error, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return lock.Unlock, nil
}

// Close releases the file handle and the writer lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.file != nil {
		errs = append(errs, s.file.Close())
		s.file = nil
	}
	errs = append(errs, s.lock.Unlock())
	return errors.Join(errs...)
}

func writeRows(w io.Writer, rows ...[]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// permanentWriteError reports failures that retrying cannot fix.
func permanentWriteError(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, unix.EROFS) ||
		errors.Is(err, unix.ENOSPC) ||
		errors.Is(err, os.ErrClosed)
}
