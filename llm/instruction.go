package llm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"

	"github.com/tbxark/cakeagent/order"
)

// BuildInstruction renders the system instruction for one extraction turn.
// Non-empty fields of prev are embedded as hints; the merge step, not the
// model, is what actually keeps them.
func BuildInstruction(prev order.State) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant that extracts structured cake order details from casual user input.\n\n")

	if hints := ContextHints(prev); hints != "" {
		sb.WriteString("Current cake order state:\n")
		sb.WriteString(hints)
		sb.WriteString("\n\nKeep these values unless the user specifically changes them.\n\n")
	}

	sb.WriteString("If the user provides order info, respond ONLY with a strict JSON object containing the fields:\n\n")
	for _, f := range order.Fields() {
		sb.WriteString(fieldLine(f))
		sb.WriteByte('\n')
	}
	sb.WriteString("\nIf the user is asking about available options, respond with a friendly natural language answer listing those options.\n\n")
	sb.WriteString("NEVER include markdown or code fences when returning JSON.\n")

	if schemaJSON, err := orderSchema(); err == nil {
		sb.WriteString("\nJSON schema of the object:\n")
		sb.WriteString(schemaJSON)
		sb.WriteByte('\n')
	}

	sb.WriteString(`
Examples:

User: "What cake types do you have?"
Bot: "Our available cake types are birthday, wedding, cupcake."

User: "I'd like a chocolate cake."
Bot: { "cakeType": null, "flavor": "chocolate", ... }

Be concise and clear.`)
	return sb.String()
}

// ContextHints renders the set fields of s as "- field: value" lines.
func ContextHints(s order.State) string {
	var lines []string
	for _, f := range order.Fields() {
		if v := s.Value(f.Name); v != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.Name, v))
		}
	}
	return strings.Join(lines, "\n")
}

func fieldLine(f order.Field) string {
	options := strings.Join(f.Vocabulary, ", ")
	switch f.Kind {
	case order.KindSet:
		return fmt.Sprintf("- %s: array of any of [%s]", f.Name, options)
	case order.KindLayered:
		return fmt.Sprintf("- %s: array with one entry per layer, each one of [%s], or null", f.Name, strings.Join(order.DecorVocabulary, ", "))
	}
	line := fmt.Sprintf("- %s: one of [%s] or null", f.Name, options)
	if f.Description != "" {
		line += " (" + f.Description + ")"
	}
	return line
}

var orderSchema = sync.OnceValues(func() (string, error) {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	s := r.Reflect(&order.State{})
	s.Title = "Cake order"
	s.Description = "Order details extracted from the latest user message. Use null for anything not mentioned."
	s.Required = nil
	for _, f := range order.Fields() {
		prop, ok := s.Properties.Get(f.Name)
		if !ok || prop == nil {
			continue
		}
		prop.Description = f.Description
		enum := make([]any, 0, len(f.Vocabulary))
		vocabulary := f.Vocabulary
		if f.Kind == order.KindLayered {
			vocabulary = order.DecorVocabulary
		}
		for _, v := range vocabulary {
			enum = append(enum, v)
		}
		if prop.Items != nil {
			prop.Items.Enum = enum
		} else {
			prop.Enum = enum
		}
	}
	data, err := sonic.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(data), nil
})
