// Package order holds the cake order schema, the accumulated order state and
// the pure functions that merge extracted records into it.
package order

import (
	"slices"
	"strconv"
	"strings"
)

type Kind int

const (
	KindScalar Kind = iota
	KindSet
	KindLayered
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSet:
		return "multiValueSet"
	case KindLayered:
		return "layerIndexedArray"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

const (
	FieldCakeType     = "cakeType"
	FieldWeddingStyle = "weddingStyle"
	FieldFlavor       = "flavor"
	FieldSize         = "size"
	FieldLayers       = "layers"
	FieldFilling      = "filling"
	FieldIcing        = "icing"
	FieldToppings     = "toppings"
	FieldDecor        = "decor"
	FieldAllergies    = "allergies"
)

const (
	CakeWedding = "wedding"
	AllergyNuts = "nuts"
	DecorNone   = "none"
	MaxLayers   = 3
)

// Field describes one order attribute. Vocabulary must not be modified by callers.
type Field struct {
	Name        string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Vocabulary  []string `json:"vocabulary"`
	Conditional bool     `json:"conditional,omitempty"`
	Description string   `json:"description,omitempty"`
}

var (
	// DecorVocabulary is the per-layer decoration set offered by the form.
	DecorVocabulary = []string{"none", "rose", "gold flake", "honey"}
	// LegacyDecorVocabulary is the older single-value decoration set, still accepted.
	LegacyDecorVocabulary = []string{"simple", "fancy", "themed", "floral"}
	// NutAliases are toppings removed whenever the order carries a nut allergy.
	NutAliases = []string{"nuts", "almonds", "walnuts", "pecans", "peanuts"}
)

// registry order is the listing order for filled and missing fields.
var registry = []Field{
	{Name: FieldCakeType, Kind: KindScalar, Vocabulary: []string{"birthday", "wedding", "cupcake"}},
	{Name: FieldWeddingStyle, Kind: KindScalar, Vocabulary: []string{"classic", "romantic", "modern"}, Conditional: true, Description: "only if cakeType is wedding"},
	{Name: FieldFlavor, Kind: KindScalar, Vocabulary: []string{"vanilla", "chocolate", "strawberry", "red velvet", "lemon"}},
	{Name: FieldSize, Kind: KindScalar, Vocabulary: []string{"small", "medium", "large", "tiered"}},
	{Name: FieldLayers, Kind: KindScalar, Vocabulary: []string{"1", "2", "3"}},
	{Name: FieldFilling, Kind: KindScalar, Vocabulary: []string{"none", "cream", "jam", "ganache"}},
	{Name: FieldIcing, Kind: KindScalar, Vocabulary: []string{"buttercream", "fondant", "chocolate glaze"}},
	{Name: FieldToppings, Kind: KindSet, Vocabulary: []string{"sprinkles", "cherries", "nuts", "berries", "chocolate chips"}},
	{Name: FieldDecor, Kind: KindLayered, Vocabulary: append(slices.Clone(DecorVocabulary), LegacyDecorVocabulary...), Description: "one entry per layer"},
	{Name: FieldAllergies, Kind: KindScalar, Vocabulary: []string{"none", "nuts", "gluten", "dairy"}},
}

// Fields returns every field in registry order.
func Fields() []Field {
	return slices.Clone(registry)
}

func Lookup(name string) (Field, bool) {
	for _, f := range registry {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// BaseFields lists the fields every order needs, in registry order.
func BaseFields() []string {
	names := make([]string, 0, len(registry))
	for _, f := range registry {
		if !f.Conditional {
			names = append(names, f.Name)
		}
	}
	return names
}

// ConditionalFields lists the fields that only apply under other selections.
func ConditionalFields() []string {
	var names []string
	for _, f := range registry {
		if f.Conditional {
			names = append(names, f.Name)
		}
	}
	return names
}

// Canonical maps raw to its vocabulary member, reporting false when raw is
// not part of the field's vocabulary.
func (f Field) Canonical(raw string) (string, bool) {
	v := normalize(raw)
	if v == "" {
		return "", false
	}
	if f.Name == FieldLayers {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", false
		}
		v = strconv.Itoa(n)
	}
	if slices.Contains(f.Vocabulary, v) {
		return v, true
	}
	return "", false
}

func normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

func isNut(v string) bool {
	return slices.Contains(NutAliases, normalize(v))
}
