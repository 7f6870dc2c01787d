package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbxark/cakeagent/order"
)

func TestContextHints(t *testing.T) {
	s := order.State{CakeType: "birthday", Toppings: []string{"sprinkles", "berries"}, Layers: "2", Decor: []string{"rose", "none"}}
	assert.Equal(t, "- cakeType: birthday\n- layers: 2\n- toppings: sprinkles, berries\n- decor: rose, none", ContextHints(s))
	assert.Empty(t, ContextHints(order.State{}))
}

func TestBuildInstruction(t *testing.T) {
	out := BuildInstruction(order.State{Flavor: "lemon"})
	assert.Contains(t, out, "- flavor: lemon")
	assert.Contains(t, out, "Keep these values unless the user specifically changes them.")
	assert.Contains(t, out, "NEVER include markdown or code fences when returning JSON.")
	assert.Contains(t, out, "- cakeType: one of [birthday, wedding, cupcake] or null")
	assert.Contains(t, out, "- weddingStyle: one of [classic, romantic, modern] or null (only if cakeType is wedding)")
	assert.Contains(t, out, "- toppings: array of any of [sprinkles, cherries, nuts, berries, chocolate chips]")
	assert.Contains(t, out, "red velvet")

	empty := BuildInstruction(order.State{})
	assert.False(t, strings.Contains(empty, "Keep these values"))
}
