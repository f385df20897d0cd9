package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatTable renders header and rows as a markdown table, padding cells by
// display width so accented names stay aligned.
func FormatTable(header []string, rows [][]string) []string {
	colCount := len(header)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = 3
	}
	measure := func(row []string) {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	line := func(row []string, separator bool) string {
		var sb strings.Builder
		sb.WriteString("|")
		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")
			if separator {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}
				sb.WriteString(content)
				if pad := colWidths[j] - runewidth.StringWidth(content); pad > 0 {
					sb.WriteString(strings.Repeat(" ", pad))
				}
			}
			sb.WriteString(" |")
		}
		return sb.String()
	}

	out := make([]string, 0, len(rows)+2)
	out = append(out, line(header, false), line(nil, true))
	for _, row := range rows {
		out = append(out, line(row, false))
	}
	return out
}
