package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ValidationReport summarizes a well-formed catalog file.
type ValidationReport struct {
	Path    string
	Version int
	Rows    int
	Bytes   int64
}

// Outdated reports whether the file uses an older schema version.
func (r ValidationReport) Outdated() bool {
	return r.Version > 0 && r.Version < SchemaVersion
}

// Validate checks the header against every known schema version and each row
// against the header. A malformed final row, including one missing its line
// terminator, yields a recoverable *CorruptStoreError; anything malformed
// before the last row is unrecoverable. An empty file is valid with Version 0.
func Validate(path string) (ValidationReport, error) {
	report := ValidationReport{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return report, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return report, fmt.Errorf("stat catalog: %w", err)
	}
	report.Bytes = info.Size()
	if report.Bytes == 0 {
		return report, nil
	}
	endsWithNewline, err := lastByteIs(f, report.Bytes, '\n')
	if err != nil {
		return report, err
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	corrupt := func(row int, at int64, recoverable bool, reason string) error {
		return &CorruptStoreError{Path: path, Row: row, TruncateAt: at, Recoverable: recoverable, Reason: reason}
	}

	header, err := reader.Read()
	if err != nil {
		// Only a torn header with nothing after it can be rewritten.
		sole, serr := singleLine(f, report.Bytes)
		if serr != nil {
			return report, serr
		}
		return report, corrupt(0, 0, sole, fmt.Sprintf("unreadable header: %v", err))
	}
	version, ok := detectVersion(header)
	if !ok {
		if isHeaderPrefix(header) && reader.InputOffset() == report.Bytes {
			return report, corrupt(0, 0, true, "header cut short")
		}
		return report, corrupt(0, 0, false, "unrecognized header")
	}
	report.Version = version
	if reader.InputOffset() == report.Bytes && !endsWithNewline {
		return report, corrupt(0, 0, true, "header missing line terminator")
	}

	// A problem row is only recoverable if nothing follows it.
	var pending *CorruptStoreError
	lastStart := reader.InputOffset()
	for row := 1; ; row++ {
		start := reader.InputOffset()
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if pending != nil {
			pending.Recoverable = false
			pending.Reason += " (followed by further rows)"
			return report, pending
		}
		lastStart = start
		switch {
		case err != nil:
			pending = &CorruptStoreError{Path: path, Row: row, TruncateAt: start, Reason: err.Error()}
			continue
		case len(fields) != len(header):
			pending = &CorruptStoreError{Path: path, Row: row, TruncateAt: start,
				Reason: fmt.Sprintf("row has %d fields, want %d", len(fields), len(header))}
			continue
		}
		if _, err := decodeFields(header, fields); err != nil {
			pending = &CorruptStoreError{Path: path, Row: row, TruncateAt: start, Reason: err.Error()}
			continue
		}
		report.Rows++
	}

	if pending != nil {
		pending.Recoverable = true
		return report, pending
	}
	if !endsWithNewline {
		report.Rows--
		return report, corrupt(report.Rows+1, lastStart, true, "final row missing line terminator")
	}
	return report, nil
}

// Repair truncates a recoverable catalog back to its last complete row and
// returns the number of bytes discarded. Well-formed files are left alone;
// unrecoverable corruption is returned unchanged.
func Repair(path string) (ValidationReport, int64, error) {
	report, err := Validate(path)
	var corrupt *CorruptStoreError
	if err == nil || !errors.As(err, &corrupt) || !corrupt.Recoverable {
		return report, 0, err
	}

	discarded := report.Bytes - corrupt.TruncateAt
	if err := os.Truncate(path, corrupt.TruncateAt); err != nil {
		return report, 0, fmt.Errorf("truncate catalog: %w", err)
	}
	report, err = Validate(path)
	return report, discarded, err
}

func lastByteIs(f *os.File, size int64, want byte) (bool, error) {
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, size-1); err != nil {
		return false, fmt.Errorf("read catalog tail: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("rewind catalog: %w", err)
	}
	return buf[0] == want, nil
}

// singleLine reports whether the file holds at most one line, i.e. no line
// terminator appears before its final byte.
func singleLine(f *os.File, size int64) (bool, error) {
	br := bufio.NewReader(io.NewSectionReader(f, 0, size))
	var n int64
	for {
		chunk, err := br.ReadSlice('\n')
		n += int64(len(chunk))
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return true, nil
		case err != nil:
			return false, fmt.Errorf("read catalog header: %w", err)
		}
		return n == size, nil
	}
}
