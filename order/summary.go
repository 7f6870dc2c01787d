package order

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// Summary renders the order and its quote as markdown tables.
func Summary(s State) string {
	var buf strings.Builder
	buf.WriteString("# Cake order\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	for _, f := range registry {
		if f.Name == FieldWeddingStyle && s.CakeType != CakeWedding {
			continue
		}
		value := s.Value(f.Name)
		if value == "" {
			value = "-"
		}
		_ = table.Append(f.Name, value)
	}
	_ = table.Render()

	q := PriceQuote(s)
	if len(q.Lines) == 0 {
		return buf.String()
	}
	buf.WriteString("\n# Quote\n")
	table = tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Item", "Price")
	for _, line := range q.Lines {
		_ = table.Append(line.Label, formatDollars(line.Amount))
	}
	_ = table.Append("Total", q.FormatTotal())
	_ = table.Render()
	return buf.String()
}
