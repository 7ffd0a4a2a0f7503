package scan

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sys/unix"

	"soundcatalog/internal/logging"
	"soundcatalog/internal/textutil"
)

// SkipReason explains why a file was not offered as a candidate.
type SkipReason string

const (
	SkipUnreadable SkipReason = "unreadable"
	SkipEmpty      SkipReason = "empty"
	SkipDuplicate  SkipReason = "duplicate"
	SkipStatFailed SkipReason = "stat_failed"
)

// Root is a named source directory.
type Root struct {
	Name string
	Path string
}

// Candidate is an accessible, non-empty audio file.
type Candidate struct {
	Path        string
	Filename    string
	Source      string
	Size        int64
	ModTime     time.Time
	Fingerprint string
}

// Entry is one scan result: a candidate, or a skipped path with its reason.
type Entry struct {
	Candidate Candidate
	Skip      SkipReason
	Err       error
}

// Skipped reports whether the entry is a skip rather than a candidate.
func (e Entry) Skipped() bool { return e.Skip != "" }

// Scanner enumerates audio files under source roots.
type Scanner struct {
	extensions []string
	logger     *slog.Logger
	access     func(path string) error
}

// New returns a Scanner accepting the given extensions, compared
// case-insensitively. Extensions may omit the leading dot.
func New(extensions []string, logger *slog.Logger) *Scanner {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return &Scanner{
		extensions: exts,
		logger:     logging.NewComponentLogger(logger, "scan"),
		access:     readable,
	}
}

func readable(path string) error {
	return unix.Access(path, unix.R_OK)
}

// Accepts reports whether name carries an allowed extension.
func (s *Scanner) Accepts(name string) bool {
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(name)))
}

// Scan walks each root in order, in lexical order within a root. Duplicate
// fingerprints within one scan are skipped after their first occurrence.
// A missing root is logged and skipped. Iteration ends early when ctx is done.
func (s *Scanner) Scan(ctx context.Context, roots []Root) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		seen := make(map[string]struct{})
		for _, root := range roots {
			if ctx.Err() != nil {
				return
			}
			if !s.walkRoot(ctx, root, seen, yield) {
				return
			}
		}
	}
}

func (s *Scanner) walkRoot(ctx context.Context, root Root, seen map[string]struct{}, yield func(Entry) bool) bool {
	info, err := os.Stat(root.Path)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		logging.WarnWithContext(s.logger, "source root unavailable", "scan_root_missing",
			logging.String("source", root.Name),
			logging.String(logging.FieldPath, root.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "files under this root are not cataloged"),
			logging.String(logging.FieldErrorHint, "check the source path and that its volume is mounted"),
		)
		return true
	}

	stopped := false
	walkErr := filepath.WalkDir(root.Path, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			stopped = true
			return filepath.SkipAll
		}
		if err != nil {
			logging.WarnWithContext(s.logger, "directory not readable", "scan_dir_unreadable",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "files below this directory are skipped"),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
			)
			if d != nil && d.IsDir() && path != root.Path {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.Accepts(d.Name()) {
			return nil
		}
		entry, ok := s.inspect(path, d, root, seen)
		if !ok {
			return nil
		}
		if !yield(entry) {
			stopped = true
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		s.logger.Warn("walk aborted",
			logging.String("source", root.Name),
			logging.Error(walkErr),
			logging.String(logging.FieldEventType, "scan_walk_failed"),
		)
	}
	return !stopped
}

// inspect turns a directory entry into a candidate or skip. ok is false for
// entries that are silently ignored, such as symlinks to directories.
func (s *Scanner) inspect(path string, d fs.DirEntry, root Root, seen map[string]struct{}) (Entry, bool) {
	var (
		info fs.FileInfo
		err  error
	)
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = d.Info()
	}
	if err != nil {
		return Entry{Candidate: Candidate{Path: path, Filename: d.Name(), Source: root.Name}, Skip: SkipStatFailed, Err: err}, true
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return Entry{}, false
	}

	cand := Candidate{
		Path:     path,
		Filename: d.Name(),
		Source:   root.Name,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}
	if err := s.access(path); err != nil {
		return Entry{Candidate: cand, Skip: SkipUnreadable, Err: err}, true
	}
	if cand.Size == 0 {
		return Entry{Candidate: cand, Skip: SkipEmpty}, true
	}

	cand.Fingerprint = Fingerprint(cand.Filename, cand.Size, cand.ModTime)
	if _, dup := seen[cand.Fingerprint]; dup {
		return Entry{Candidate: cand, Skip: SkipDuplicate}, true
	}
	seen[cand.Fingerprint] = struct{}{}
	return Entry{Candidate: cand}, true
}

// Fingerprint derives a file identity from the folded base name, size, and
// modification time. Two copies of one file under different roots share it.
func Fingerprint(filename string, size int64, modTime time.Time) string {
	h := xxhash.New()
	_, _ = h.WriteString(textutil.FoldKey(filepath.Base(filename)))
	var buf [17]byte
	binary.BigEndian.PutUint64(buf[1:9], uint64(size))
	binary.BigEndian.PutUint64(buf[9:], uint64(modTime.UnixNano()))
	_, _ = h.Write(buf[:])
	return fmt.Sprintf("%016x", h.Sum64())
}
