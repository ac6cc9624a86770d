package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newStyledTable(headers ...string) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderSchema renders every schema row with its normalized tag.
func renderSchema(reg *colinfo.Registry) string {
	t := newStyledTable("name", "description", "units", "type", "tag", "flag")
	for _, c := range reg.Columns() {
		tag, flag := "-", ""
		if tt, ok := reg.Type(c.Name); ok {
			tag = tt.Kind.String() + ":" + tt.String()
		}
		if reg.IsFlag(c.Name) {
			flag = "yes"
		}
		t.Row(c.Name, c.Description, c.Units, c.Type, tag, flag)
	}
	return t.Render()
}

// renderPreview renders the first n rows of a table.
func renderPreview(tbl *table.Table, n int) string {
	if n > tbl.Len() {
		n = tbl.Len()
	}
	t := newStyledTable(tbl.Columns()...)
	for i := 0; i < n; i++ {
		row := tbl.Row(i)
		cells := make([]string, len(row))
		for c, v := range row {
			cells[c] = formatCell(v)
		}
		t.Row(cells...)
	}
	out := t.Render()
	if n < tbl.Len() {
		out += "\n" + dimStyle.Render(fmt.Sprintf("... %d more rows", tbl.Len()-n))
	}
	return out
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "<null>"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
