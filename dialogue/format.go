package dialogue

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/tbxark/cakeagent/order"
)

func formatUserInputSection(lastInput string, extracted bool) string {
	if lastInput == "" {
		return ""
	}
	answer := "no"
	if extracted {
		answer = "yes"
	}
	return fmt.Sprintf("# User input:\n%s\n> extracted info: %s", lastInput, answer)
}

func formatFilledFieldsSection(s order.State, names []string) string {
	if len(names) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Already noted:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	for _, name := range names {
		_ = table.Append(name, s.Value(name))
	}
	_ = table.Render()
	return buf.String()
}

func formatMissingFieldsSection(names []string) string {
	if len(names) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Missing fields:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Options")
	for _, name := range names {
		f, ok := order.Lookup(name)
		if !ok {
			continue
		}
		options := strings.Join(f.Vocabulary, ", ")
		if f.Description != "" {
			options += " (" + f.Description + ")"
		}
		_ = table.Append(name, options)
	}
	_ = table.Render()
	return buf.String()
}

func formatRequest(req *Request) string {
	var sections []string
	for _, s := range []string{
		formatUserInputSection(req.LastUserInput, req.Extracted),
		formatFilledFieldsSection(req.State, req.Result.Filled),
		formatMissingFieldsSection(req.Result.Missing),
	} {
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n\n")
}
