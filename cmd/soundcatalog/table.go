package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// wrapWidth bounds free-text columns such as failure causes.
const wrapWidth = 60

// renderTable draws rows under the given column titles. A title ending in ">"
// is right-aligned and one ending in "~" wraps at wrapWidth; the marker is not
// printed.
func renderTable(columns []string, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		cfg := table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
		switch {
		case strings.HasSuffix(col, ">"):
			cfg.Align = text.AlignRight
		case strings.HasSuffix(col, "~"):
			cfg.WidthMax = wrapWidth
			cfg.WidthMaxEnforcer = text.WrapSoft
		}
		header[i] = strings.TrimRight(col, ">~")
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range min(len(row), len(columns)) {
			cells[i] = row[i]
		}
		tw.AppendRow(cells)
	}
	return tw.Render()
}

// renderFields draws label/value pairs under a title.
func renderFields(title string, fields [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	for _, f := range fields {
		tw.AppendRow(table.Row{f[0], f[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw.Render()
}
