package order

import (
	"fmt"
	"strings"
)

var (
	cakeTypePrices     = map[string]int{"birthday": 20, "wedding": 50, "cupcake": 10}
	sizePrices         = map[string]int{"small": 10, "medium": 20, "large": 30, "tiered": 50}
	fillingPrices      = map[string]int{"none": 0, "cream": 5, "jam": 5, "ganache": 7}
	icingPrices        = map[string]int{"buttercream": 5, "fondant": 10, "chocolate glaze": 7}
	weddingStylePrices = map[string]int{"classic": 10, "romantic": 15, "modern": 20}
	allergyPrices      = map[string]int{"none": 0, "nuts": 5, "gluten": 5, "dairy": 5}
)

const (
	pricePerLayer   = 5
	pricePerTopping = 2
)

type QuoteLine struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"`
}

// Quote is a price estimate in whole dollars.
type Quote struct {
	Lines []QuoteLine `json:"lines"`
	Total int         `json:"total"`
}

func (q Quote) FormatTotal() string {
	return formatDollars(q.Total)
}

func formatDollars(amount int) string {
	return fmt.Sprintf("$%.2f", float64(amount))
}

// PriceQuote prices the fields set on s. Unset fields contribute nothing.
func PriceQuote(s State) Quote {
	var q Quote
	add := func(label string, amount int) {
		q.Lines = append(q.Lines, QuoteLine{Label: label, Amount: amount})
		q.Total += amount
	}
	if p, ok := cakeTypePrices[s.CakeType]; ok {
		add(fmt.Sprintf("Cake Type (%s)", s.CakeType), p)
	}
	if p, ok := sizePrices[s.Size]; ok {
		add(fmt.Sprintf("Size (%s)", s.Size), p)
	}
	if n := s.LayerCount(); n > 0 {
		add(fmt.Sprintf("Layers (%d)", n), n*pricePerLayer)
	}
	if p, ok := fillingPrices[s.Filling]; ok {
		add(fmt.Sprintf("Filling (%s)", s.Filling), p)
	}
	if p, ok := icingPrices[s.Icing]; ok {
		add(fmt.Sprintf("Icing (%s)", s.Icing), p)
	}
	if len(s.Toppings) > 0 {
		add(fmt.Sprintf("Toppings (%s)", strings.Join(s.Toppings, ", ")), len(s.Toppings)*pricePerTopping)
	}
	if s.CakeType == CakeWedding {
		if p, ok := weddingStylePrices[s.WeddingStyle]; ok {
			add(fmt.Sprintf("Wedding Style (%s)", s.WeddingStyle), p)
		}
	}
	if p, ok := allergyPrices[s.Allergies]; ok {
		add(fmt.Sprintf("Allergies (%s)", s.Allergies), p)
	}
	return q
}
