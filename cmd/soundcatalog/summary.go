package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"soundcatalog/internal/classify"
	"soundcatalog/internal/pipeline"
)

func renderSummary(s pipeline.Summary, catalogPath string) string {
	fields := [][2]string{
		{"Run", s.RunID},
		{"State", string(s.State)},
		{"Resume", yesNo(s.Resume)},
		{"Interrupted", yesNo(s.Interrupted)},
		{"Found", strconv.Itoa(s.Found)},
		{"Already cataloged", strconv.Itoa(s.SkippedDone)},
		{"Skipped (unreadable/empty)", strconv.Itoa(s.SkippedInvalid)},
		{"Duplicates", strconv.Itoa(s.Duplicates)},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Failed", strconv.Itoa(s.Failed)},
	}
	for _, cat := range classify.Categories {
		fields = append(fields, [2]string{"  " + string(cat), strconv.Itoa(s.ByCategory[cat])})
	}
	fields = append(fields,
		[2]string{"Snapshots", strconv.Itoa(len(s.Snapshots))},
		[2]string{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		[2]string{"Catalog", catalogPath},
	)

	var b strings.Builder
	b.WriteString(renderFields("Run summary", fields))
	if len(s.Failures) > 0 {
		rows := make([][]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			rows = append(rows, []string{f.Path, string(f.Stage), fmt.Sprint(f.Cause)})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Failed file", "Stage", "Cause~"}, rows))
	}
	return b.String()
}
