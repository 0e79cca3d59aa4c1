package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. A zero maxWidth leaves the column
// unbounded; wider cells are trimmed to it.
type column struct {
	title    string
	numeric  bool
	maxWidth int
}

var (
	jobColumns = []column{
		{title: "ID"},
		{title: "File", maxWidth: 40},
		{title: "Format"},
		{title: "Status"},
		{title: "Progress", numeric: true},
		{title: "Elapsed", numeric: true},
		{title: "Result", maxWidth: 48},
	}
	historyColumns = []column{
		{title: "Finished"},
		{title: "File", maxWidth: 40},
		{title: "Format"},
		{title: "Status"},
		{title: "Duration", numeric: true},
		{title: "Result", maxWidth: 48},
	}
	queueStatsColumns = []column{
		{title: "Waiting", numeric: true},
		{title: "Processing", numeric: true},
		{title: "Completed", numeric: true},
		{title: "Failed", numeric: true},
	}
)

// renderTable lays rows out under columns. Missing cells render empty and
// extra cells are dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
		if col.maxWidth > 0 {
			configs[i].WidthMax = col.maxWidth
			configs[i].WidthMaxEnforcer = text.Trim
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
