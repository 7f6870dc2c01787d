// Package dialogue decides which order fields are still outstanding and
// phrases the next assistant turn.
package dialogue

import (
	"fmt"
	"strings"

	"github.com/tbxark/cakeagent/order"
)

const (
	Greeting       = "Hi there! What kind of cake are you thinking about today? You can tell me the cake type, flavor, toppings, or anything you want."
	Completion     = "Thanks! I've noted your complete cake order details."
	followUpFormat = "I've got your %s. Could you please tell me your preferred %s?"
)

// Evaluate classifies every applicable field as filled or missing.
// weddingStyle on a non-wedding cake is not applicable and appears in neither
// list. decor is filled only when the layer count is known and matched.
func Evaluate(s order.State) Result {
	var res Result
	for _, f := range order.Fields() {
		var filled bool
		switch f.Name {
		case order.FieldWeddingStyle:
			if s.CakeType != order.CakeWedding {
				continue
			}
			filled = s.WeddingStyle != ""
		case order.FieldDecor:
			n := s.LayerCount()
			filled = n > 0 && len(s.Decor) == n
		default:
			filled = len(s.Values(f.Name)) > 0
		}
		if filled {
			res.Filled = append(res.Filled, f.Name)
		} else {
			res.Missing = append(res.Missing, f.Name)
		}
	}
	return res
}

// Compose is the deterministic reply for a completion result.
func Compose(res Result) string {
	switch {
	case len(res.Filled) == 0:
		return Greeting
	case len(res.Missing) == 0:
		return Completion
	default:
		return fmt.Sprintf(followUpFormat, strings.Join(res.Filled, ", "), strings.Join(res.Missing, ", "))
	}
}

// Reply evaluates s and composes the reply in one step.
func Reply(s order.State) string {
	return Compose(Evaluate(s))
}
