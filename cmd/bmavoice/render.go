package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// column is a fixed-width table column. Numeric columns align right.
type column struct {
	title   string
	width   int
	numeric bool
}

func renderTable(w io.Writer, cols []column, rows [][]string) {
	cell := func(c column, s string) string {
		style := lipgloss.NewStyle().Width(c.width).MaxWidth(c.width).PaddingRight(1)
		if c.numeric {
			style = style.Align(lipgloss.Right)
		}
		return style.Render(s)
	}

	var header []string
	for _, c := range cols {
		header = append(header, headerStyle.Render(cell(c, c.title)))
	}
	fmt.Fprintln(w, strings.Join(header, ""))

	for _, row := range rows {
		var cells []string
		for i, c := range cols {
			var s string
			if i < len(row) {
				s = row[i]
			}
			cells = append(cells, cell(c, s))
		}
		fmt.Fprintln(w, strings.Join(cells, ""))
	}
}

func renderField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label+":"), value)
}
