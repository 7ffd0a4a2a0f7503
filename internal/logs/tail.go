package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoLogs reports a log directory without run logs.
var ErrNoLogs = errors.New("no run logs found")

// Last returns up to n final complete lines of path and the offset just past
// them. n <= 0 returns no lines and the current end offset. A missing file
// yields no lines at offset 0.
func Last(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n <= 0 {
		info, err := file.Stat()
		if err != nil {
			return nil, 0, fmt.Errorf("stat log file: %w", err)
		}
		return nil, info.Size(), nil
	}

	ring := make([]string, n)
	count, idx := 0, 0
	offset, err := readLines(file, 0, func(line string) {
		ring[idx] = line
		idx = (idx + 1) % n
		count = min(count+1, n)
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	for i := range count {
		lines[i] = ring[(idx-count+i+n)%n]
	}
	return lines, offset, nil
}

// Follow calls emit for every complete line appended to path after offset,
// polling every interval until ctx is done. It returns ctx.Err() on
// cancellation.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Latest returns the most recently modified run log in dir.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "soundcatalog-*.log"))
	if err != nil {
		return "", err
	}
	var (
		newest  string
		newestT time.Time
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest, newestT = path, info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	return newest, nil
}

func readFrom(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		// Truncated or replaced; start over.
		offset = 0
	}
	return readLines(file, offset, emit)
}

// readLines emits each newline-terminated line from offset and returns the
// offset after the last complete line.
func readLines(file *os.File, offset int64, emit func(string)) (int64, error) {
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		emit(strings.TrimRight(line, "\r\n"))
	}
}
