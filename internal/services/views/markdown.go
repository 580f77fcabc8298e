package views

import "strings"

// Markdown renders the table as a GitHub-flavoured markdown table.
func (t MetricsTable) Markdown() string {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString("## ")
		b.WriteString(t.Title)
		b.WriteString("\n\n")
	}
	writeRow(&b, t.Columns)
	sep := make([]string, len(t.Columns))
	for i := range sep {
		if i == 0 {
			sep[i] = "---"
		} else {
			sep[i] = "---:"
		}
	}
	writeRow(&b, sep)
	for _, r := range t.Rows {
		writeRow(&b, append([]string{string(r.Symbol)}, r.Cells...))
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}
