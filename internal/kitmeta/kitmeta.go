package kitmeta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"soundcatalog/internal/textutil"
)

// MinTitleSimilarity is the cosine similarity a title-only entry needs to
// match a file name.
const MinTitleSimilarity = 0.8

// Entry is the metadata for one sound.
type Entry struct {
	Filename        string
	Title           string
	Category        string
	DurationSeconds float64
	Tags            []string
	Description     string
}

// LineError describes a rejected line.
type LineError struct {
	Line   int
	Reason string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Index answers metadata lookups by file name. A nil Index has no entries.
type Index struct {
	byName   map[string]Entry
	byStem   map[string]Entry
	titled   []Entry
	terms    []*textutil.Terms
	Rejected []LineError
}

// Load parses the kit file at path. A missing file yields an empty index.
func Load(path string) (*Index, error) {
	if strings.TrimSpace(path) == "" {
		return &Index{}, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open kit file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads kit entries from r.
func Parse(r io.Reader) (*Index, error) {
	idx := &Index{
		byName: make(map[string]Entry),
		byStem: make(map[string]Entry),
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		entry, err := parseLine(text)
		if err != nil {
			idx.Rejected = append(idx.Rejected, LineError{Line: line, Reason: err.Error()})
			continue
		}
		idx.add(entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read kit file: %w", err)
	}
	return idx, nil
}

func parseLine(text string) (Entry, error) {
	// The description is last and may itself contain pipes.
	parts := strings.SplitN(text, "|", 6)
	if len(parts) < 4 {
		return Entry{}, fmt.Errorf("expected at least 4 fields, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	entry := Entry{
		Filename: parts[0],
		Title:    parts[1],
		Category: parts[2],
	}
	if entry.Filename == "" && entry.Title == "" {
		return Entry{}, fmt.Errorf("entry has neither filename nor title")
	}
	if parts[3] != "" {
		d, err := strconv.ParseFloat(strings.TrimSuffix(parts[3], "s"), 64)
		if err != nil {
			return Entry{}, fmt.Errorf("duration %q: %w", parts[3], err)
		}
		entry.DurationSeconds = d
	}
	if len(parts) > 4 {
		for _, tag := range strings.Split(parts[4], ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				entry.Tags = append(entry.Tags, tag)
			}
		}
	}
	if len(parts) > 5 {
		entry.Description = parts[5]
	}
	return entry, nil
}

func (idx *Index) add(entry Entry) {
	if entry.Filename == "" {
		if terms := textutil.NewTerms(entry.Title); terms != nil {
			idx.titled = append(idx.titled, entry)
			idx.terms = append(idx.terms, terms)
		}
		return
	}
	base := filepath.Base(entry.Filename)
	idx.byName[textutil.FoldKey(base)] = entry
	idx.byStem[textutil.FoldKey(textutil.Stem(base))] = entry
}

// Len returns the number of accepted entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byName) + len(idx.titled)
}

// Lookup finds metadata for an audio file. Exact name matches win, then a
// match ignoring the extension, then the most similar title-only entry.
func (idx *Index) Lookup(filename string) (Entry, bool) {
	if idx == nil {
		return Entry{}, false
	}
	base := filepath.Base(filename)
	if e, ok := idx.byName[textutil.FoldKey(base)]; ok {
		return e, true
	}
	stem := textutil.Stem(base)
	if e, ok := idx.byStem[textutil.FoldKey(stem)]; ok {
		return e, true
	}

	i, score := textutil.BestMatch(textutil.NewTerms(stem), idx.terms)
	if i >= 0 && score >= MinTitleSimilarity {
		return idx.titled[i], true
	}
	return Entry{}, false
}
