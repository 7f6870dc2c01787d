package order

import "slices"

// Merge overlays rec onto prev and returns the canonical result. prev is not modified.
func Merge(prev State, rec Record) State {
	s, _ := MergeReport(prev, rec)
	return s
}

// Canonicalize builds a canonical state from a record alone.
func Canonicalize(rec Record) State {
	return Merge(State{}, rec)
}

// MergeReport is Merge that also returns the out-of-vocabulary values it dropped.
//
// Steps: defaults, then the previous state, then the record field by field
// (absent fields keep the previous value), then decor is laid out per layer,
// then nut toppings are removed under a nut allergy, then weddingStyle is
// cleared for non-wedding cakes.
func MergeReport(prev State, rec Record) (State, []Dropped) {
	var m merger
	base := m.canonical(prev)
	next := base.Clone()

	var decor []string
	for _, f := range registry {
		raw, ok := rec[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case KindScalar:
			if v, ok := m.scalar(f, raw); ok {
				*next.scalar(f.Name) = v
			}
		case KindSet:
			if vals := m.set(f, raw); len(vals) > 0 {
				next.Toppings = vals
			}
		case KindLayered:
			decor = m.positions(f, raw)
		}
	}

	next.Decor = layDecor(next.LayerCount(), base.Decor, decor)
	if next.Allergies == AllergyNuts {
		next.Toppings = withoutNuts(next.Toppings)
	}
	if next.CakeType != CakeWedding {
		next.WeddingStyle = ""
	}
	return next, m.dropped
}

type merger struct {
	dropped []Dropped
}

func (m *merger) drop(f Field, v string) {
	if normalize(v) == "" {
		return
	}
	m.dropped = append(m.dropped, Dropped{Field: f.Name, Value: v})
}

// scalar picks the first in-vocabulary value.
func (m *merger) scalar(f Field, raw []string) (string, bool) {
	for _, v := range raw {
		if c, ok := f.Canonical(v); ok {
			return c, true
		}
		m.drop(f, v)
	}
	return "", false
}

// set keeps in-vocabulary values in first-seen order without duplicates.
func (m *merger) set(f Field, raw []string) []string {
	var out []string
	for _, v := range raw {
		c, ok := f.Canonical(v)
		if !ok {
			m.drop(f, v)
			continue
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// positions keeps indexes; invalid entries become "" so lower layers keep their slot.
func (m *merger) positions(f Field, raw []string) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		c, ok := f.Canonical(v)
		if !ok {
			m.drop(f, v)
			continue
		}
		out[i] = c
	}
	return out
}

func (m *merger) canonical(s State) State {
	var out State
	for _, f := range registry {
		switch f.Kind {
		case KindScalar:
			if v := s.Value(f.Name); v != "" {
				if c, ok := m.scalar(f, []string{v}); ok {
					*out.scalar(f.Name) = c
				}
			}
		case KindSet:
			out.Toppings = m.set(f, s.Toppings)
		case KindLayered:
			out.Decor = m.positions(f, s.Decor)
		}
	}
	return out
}

func layDecor(layers int, prior, update []string) []string {
	if layers <= 0 {
		return nil
	}
	out := make([]string, layers)
	for i := range out {
		switch {
		case i < len(update) && update[i] != "":
			out[i] = update[i]
		case i < len(prior) && prior[i] != "":
			out[i] = prior[i]
		default:
			out[i] = DecorNone
		}
	}
	return out
}

func withoutNuts(toppings []string) []string {
	var out []string
	for _, t := range toppings {
		if !isNut(t) {
			out = append(out, t)
		}
	}
	return out
}
