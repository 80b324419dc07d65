package signing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Flattened maps dotted parameter paths to scalar values, in the depth-first
// order the paths were first produced.
type Flattened struct {
	*orderedmap.OrderedMap[string, Value]
}

func newFlattened() *Flattened {
	return &Flattened{OrderedMap: orderedmap.New[string, Value]()}
}

// Keys returns the paths in insertion order.
func (f *Flattened) Keys() []string {
	keys := make([]string, 0, f.Len())
	for pair := f.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// SortedKeys returns the paths in byte-wise ascending order.
func (f *Flattened) SortedKeys() []string {
	keys := f.Keys()
	sort.Strings(keys)
	return keys
}

// Map returns the flattened view as plain text values, for logging.
func (f *Flattened) Map() map[string]string {
	out := make(map[string]string, f.Len())
	for pair := f.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value.Text()
	}
	return out
}

// Flatten converts a parameter tree into a single-level mapping keyed by
// dot-joined paths. Sequence elements are keyed by their index, with index 0
// contributing an empty segment, so {"quotas": ["x"]} flattens to
// {"quotas": "x"}.
func Flatten(tree *Mapping) (*Flattened, error) {
	out := newFlattened()
	if tree == nil {
		return out, nil
	}
	if err := flattenMapping(out, tree, "", 0); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenMapping(out *Flattened, m *Mapping, prefix string, depth int) error {
	if depth >= MaxDepth {
		return ErrCyclicInput
	}
	// Mapping keys are always named segments, "0" included. Only a
	// sequence's first element is unnamed.
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		if err := flattenValue(out, pathKey(prefix, pair.Key), pair.Value, depth); err != nil {
			return err
		}
	}
	return nil
}

func flattenSequence(out *Flattened, items []Value, prefix string, depth int) error {
	if depth >= MaxDepth {
		return ErrCyclicInput
	}
	for i, item := range items {
		segment := ""
		if i != 0 {
			segment = strconv.Itoa(i)
		}
		if err := flattenValue(out, pathKey(prefix, segment), item, depth); err != nil {
			return err
		}
	}
	return nil
}

func flattenValue(out *Flattened, key string, v Value, depth int) error {
	switch v.kind {
	case KindMapping:
		return flattenMapping(out, v.mapping, key, depth+1)
	case KindSequence:
		return flattenSequence(out, v.Items(), key, depth+1)
	}
	if !v.IsScalar() {
		return fmt.Errorf("%w: %q holds %s value", ErrInvalidInputType, key, v.kind)
	}
	out.Set(key, v)
	return nil
}

func pathKey(prefix, segment string) string {
	key := segment
	if prefix != "" {
		key = prefix + "." + segment
	}
	return strings.TrimRight(key, ".")
}
