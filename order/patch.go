package order

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// ErrInvalidPatch marks form edits that cannot be applied to an order.
var ErrInvalidPatch = errors.New("invalid order patch")

// Operation is a single RFC6902 operation against the JSON form of a State.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

var allowedPaths = sync.OnceValue(func() map[string]bool {
	paths := map[string]bool{}
	for _, p := range jsonPointerPaths(reflect.TypeOf(State{})) {
		paths[p] = true
	}
	return paths
})

// AllowedPaths lists the JSON pointers a form edit may touch.
func AllowedPaths() []string {
	out := make([]string, 0, len(allowedPaths()))
	for _, f := range registry {
		p := "/" + f.Name
		out = append(out, p)
		if f.Kind != KindScalar {
			out = append(out, p+"/-")
		}
	}
	return out
}

// ApplyPatch applies form edits to current and canonicalizes the outcome, so
// edits are held to the same vocabulary and constraints as extracted values.
func ApplyPatch(current State, ops []Operation) (State, error) {
	if err := ValidateOperations(ops); err != nil {
		return current, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	if len(ops) == 0 {
		return current, nil
	}

	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return current, fmt.Errorf("failed to marshal current state: %w", err)
	}
	patchJSON, err := sonic.Marshal(fixOperations(currentJSON, ops))
	if err != nil {
		return current, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return current, fmt.Errorf("%w: decode: %w", ErrInvalidPatch, err)
	}
	modifiedJSON, err := patch.Apply(currentJSON)
	if err != nil {
		return current, fmt.Errorf("%w: apply: %w", ErrInvalidPatch, err)
	}

	var next State
	if err := sonic.Unmarshal(modifiedJSON, &next); err != nil {
		return current, fmt.Errorf("%w: patched state is not an order: %w", ErrInvalidPatch, err)
	}
	return next, nil
}

// ValidateOperations rejects unknown ops and paths outside the order fields.
func ValidateOperations(ops []Operation) error {
	allowed := allowedPaths()
	for i, op := range ops {
		switch op.Op {
		case OpAdd, OpRemove, OpReplace:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if allowed[op.Path] || matchesWildcard(op.Path, allowed) {
			continue
		}
		return fmt.Errorf("operation %d: path %q is not in the allowed paths set", i, op.Path)
	}
	return nil
}

// fixOperations turns replace on a field or a missing path into add and drops
// removes of missing paths, which is what form widgets usually mean. Fields
// always exist in the document, often as null.
func fixOperations(currentJSON []byte, ops []Operation) []Operation {
	var doc any
	if err := sonic.Unmarshal(currentJSON, &doc); err != nil {
		return ops
	}
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OpReplace:
			if strings.Count(op.Path, "/") == 1 || !pathExists(doc, op.Path) {
				op.Op = OpAdd
			}
		case OpRemove:
			if !pathExists(doc, op.Path) {
				continue
			}
		}
		fixed = append(fixed, op)
	}
	return fixed
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	cur := doc
	for _, token := range strings.Split(path[1:], "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		switch node := cur.(type) {
		case map[string]any:
			value, ok := node[token]
			if !ok {
				return false
			}
			cur = value
		case []any:
			index, err := strconv.Atoi(token)
			if err != nil || index < 0 || index >= len(node) {
				return false
			}
			cur = node[index]
		default:
			return false
		}
	}
	return true
}

// matchesWildcard lets "/decor/2" match an allowed "/decor/-".
func matchesWildcard(path string, allowed map[string]bool) bool {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if _, err := strconv.Atoi(segments[i]); err != nil {
			continue
		}
		candidate := slicesWith(segments, i, "-")
		if allowed[strings.Join(candidate, "/")] {
			return true
		}
	}
	return false
}

func slicesWith(segments []string, i int, v string) []string {
	out := make([]string, len(segments))
	copy(out, segments)
	out[i] = v
	return out
}

func jsonPointerPaths(typ reflect.Type) []string {
	var paths []string
	collectPaths(typ, "", &paths)
	return paths
}

func collectPaths(typ reflect.Type, prefix string, paths *[]string) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	switch typ.Kind() {
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonFieldName(field)
			if name == "" || name == "-" {
				continue
			}
			fieldPath := prefix + "/" + name
			*paths = append(*paths, fieldPath)
			collectPaths(field.Type, fieldPath, paths)
		}
	case reflect.Slice, reflect.Array:
		*paths = append(*paths, prefix+"/-")
	}
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return field.Name
}
