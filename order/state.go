package order

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// State is the accumulated order. Empty strings and nil slices mean "not set".
// It is a value: every operation in this package returns a fresh State.
type State struct {
	CakeType     string   `json:"cakeType"`
	Flavor       string   `json:"flavor"`
	Size         string   `json:"size"`
	Layers       string   `json:"layers"`
	Filling      string   `json:"filling"`
	Icing        string   `json:"icing"`
	Toppings     []string `json:"toppings"`
	Decor        []string `json:"decor"`
	WeddingStyle string   `json:"weddingStyle"`
	Allergies    string   `json:"allergies"`
}

// Record is a partial extraction result: field name to raw, unvalidated values.
// Scalar fields carry a single element. A missing key means the field is absent.
type Record map[string][]string

// Dropped reports a value that was discarded because it is outside the vocabulary.
type Dropped struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (d Dropped) String() string {
	return fmt.Sprintf("%s=%q", d.Field, d.Value)
}

func (s State) Clone() State {
	out := s
	out.Toppings = slices.Clone(s.Toppings)
	out.Decor = slices.Clone(s.Decor)
	return out
}

func (s State) IsEmpty() bool {
	for _, f := range registry {
		if len(s.Values(f.Name)) > 0 {
			return false
		}
	}
	return true
}

// LayerCount resolves layers to an integer, 0 when unset.
func (s State) LayerCount() int {
	n, err := strconv.Atoi(s.Layers)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Values returns the set values of a field; scalars yield at most one element.
func (s State) Values(name string) []string {
	switch name {
	case FieldToppings:
		return s.Toppings
	case FieldDecor:
		return s.Decor
	}
	if p := s.scalar(name); p != nil && *p != "" {
		return []string{*p}
	}
	return nil
}

// Value returns a display form of the field: scalars as is, sequences joined with ", ".
func (s State) Value(name string) string {
	return strings.Join(s.Values(name), ", ")
}

func (s *State) scalar(name string) *string {
	switch name {
	case FieldCakeType:
		return &s.CakeType
	case FieldWeddingStyle:
		return &s.WeddingStyle
	case FieldFlavor:
		return &s.Flavor
	case FieldSize:
		return &s.Size
	case FieldLayers:
		return &s.Layers
	case FieldFilling:
		return &s.Filling
	case FieldIcing:
		return &s.Icing
	case FieldAllergies:
		return &s.Allergies
	default:
		return nil
	}
}

func (s State) jsonValue(f Field) any {
	if f.Kind == KindScalar {
		if v := s.Value(f.Name); v != "" {
			return v
		}
		return nil
	}
	vals := s.Values(f.Name)
	if vals == nil {
		return []string{}
	}
	return vals
}

// MarshalJSON renders unset scalars as null and unset sequences as [].
func (s State) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range registry {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := sonic.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := sonic.Marshal(s.jsonValue(f))
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", f.Name, err)
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(val)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// UnmarshalJSON accepts the lenient shapes clients and older form versions
// send (scalar decor, numeric layers, mixed case) and canonicalizes them.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode order state: %w", err)
	}
	if raw == nil {
		*s = State{}
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("decode order state: expected object, got %T", raw)
	}
	*s = Canonicalize(RecordFromMap(m))
	return nil
}

// RecordFromMap converts a decoded JSON object into a Record. Keys are matched
// case-insensitively ignoring '_' and '-'. Bare scalars given for sequence
// fields become single-element sequences; nulls, booleans and objects are absent.
// When several keys name one field, the exact field name wins, then the first
// alias in sorted order.
func RecordFromMap(m map[string]any) Record {
	rec := Record{}
	exact := map[string]bool{}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		v := m[key]
		f, ok := lookupKey(key)
		if !ok {
			continue
		}
		if _, seen := rec[f.Name]; seen && (exact[f.Name] || key != f.Name) {
			continue
		}
		var vals []string
		switch tv := v.(type) {
		case []any:
			vals = make([]string, 0, len(tv))
			for _, item := range tv {
				text, _ := textOf(item)
				vals = append(vals, text)
			}
		default:
			text, ok := textOf(tv)
			if !ok {
				continue
			}
			vals = []string{text}
		}
		if len(vals) == 0 {
			continue
		}
		rec[f.Name] = vals
		exact[f.Name] = key == f.Name
	}
	return rec
}

func lookupKey(key string) (Field, bool) {
	k := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(key))
	for _, f := range registry {
		if strings.ToLower(f.Name) == k {
			return f, true
		}
	}
	return Field{}, false
}

func textOf(v any) (string, bool) {
	switch tv := v.(type) {
	case string:
		return tv, true
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), true
	case int:
		return strconv.Itoa(tv), true
	case int64:
		return strconv.FormatInt(tv, 10), true
	default:
		return "", false
	}
}
