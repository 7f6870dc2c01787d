// Package extract turns raw model output into either a structured order
// record or a free-text answer.
package extract

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/tbxark/cakeagent/order"
)

// Result is the outcome of parsing one model reply. When Structured is false
// the reply was prose and Text carries it verbatim.
type Result struct {
	Structured bool
	Record     order.Record
	Text       string
}

// Sanitize removes leading code fences (optionally tagged json) and trailing
// fences, layer by layer, then trims surrounding whitespace. Clean text is
// returned unchanged, so Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	for {
		next := stripFence(text)
		if next == text {
			return text
		}
		text = next
	}
}

func stripFence(text string) string {
	if rest, ok := strings.CutPrefix(text, "```"); ok {
		if lower := strings.ToLower(rest); strings.HasPrefix(lower, "json") {
			rest = rest[len("json"):]
		}
		text = rest
	}
	if rest, ok := strings.CutSuffix(text, "```"); ok {
		text = rest
	}
	return strings.TrimSpace(text)
}

// Parse interprets sanitized text as a record. Anything that is not a JSON
// object takes the unstructured path; Parse never fails.
func Parse(text string) Result {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return Result{Text: text}
	}
	var obj map[string]any
	if err := sonic.UnmarshalString(trimmed, &obj); err != nil || obj == nil {
		return Result{Text: text}
	}
	return Result{Structured: true, Record: order.RecordFromMap(obj), Text: text}
}

// Extract is Sanitize followed by Parse.
func Extract(raw string) Result {
	return Parse(Sanitize(raw))
}
