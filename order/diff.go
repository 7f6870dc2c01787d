package order

import "slices"

// Diff returns the operations that turn prev into next, one per changed
// field, in registry order. Applying them to prev with ApplyPatch yields next.
func Diff(prev, next State) []Operation {
	var ops []Operation
	for _, f := range registry {
		before, after := prev.Values(f.Name), next.Values(f.Name)
		if slices.Equal(before, after) {
			continue
		}
		path := "/" + escapeJSONPointer(f.Name)
		switch {
		case len(after) == 0:
			ops = append(ops, Operation{Op: OpRemove, Path: path})
		case len(before) == 0:
			ops = append(ops, Operation{Op: OpAdd, Path: path, Value: next.jsonValue(f)})
		default:
			ops = append(ops, Operation{Op: OpReplace, Path: path, Value: next.jsonValue(f)})
		}
	}
	return ops
}

func escapeJSONPointer(token string) string {
	var out []rune
	for _, ch := range token {
		switch ch {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
