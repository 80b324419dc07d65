package signing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FromAny converts decoded JSON or plain Go values into a Value.
//
// Plain maps have no order, so their keys are visited sorted. Floats are
// accepted only when integral, since encoding/json decodes every number as
// float64 unless UseNumber is set.
func FromAny(in any) (Value, error) {
	return fromAny(in, 0)
}

// MappingFromAny is FromAny for inputs that must be a mapping.
func MappingFromAny(in any) (*Mapping, error) {
	if in == nil {
		return NewMapping(), nil
	}
	v, err := FromAny(in)
	if err != nil {
		return nil, err
	}
	if v.kind != KindMapping {
		return nil, fmt.Errorf("%w: expected mapping, got %s", ErrInvalidInputType, v.kind)
	}
	return v.mapping, nil
}

func fromAny(in any, depth int) (Value, error) {
	if depth >= MaxDepth {
		return Value{}, ErrCyclicInput
	}

	switch t := in.(type) {
	case Value:
		return t, nil
	case *Mapping:
		return Object(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t)
	case json.Number:
		n, err := strconv.ParseInt(t.String(), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %s is not an integer", ErrInvalidInputType, t)
		}
		return Int(n), nil
	case float64:
		if t != math.Trunc(t) || math.Abs(t) >= 1<<53 {
			return Value{}, fmt.Errorf("%w: number %v is not an integer", ErrInvalidInputType, t)
		}
		return Int(int64(t)), nil
	case []string:
		return Strings(t...), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := fromAny(item, depth+1)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		m := NewMapping()
		for _, k := range keys {
			v, err := fromAny(t[k], depth+1)
			if err != nil {
				return Value{}, err
			}
			m.Set(k, v)
		}
		return Object(m), nil
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		m := NewMapping()
		for _, k := range keys {
			m.Set(k, String(t[k]))
		}
		return Object(m), nil
	case *orderedmap.OrderedMap[string, any]:
		m := NewMapping()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			v, err := fromAny(pair.Value, depth+1)
			if err != nil {
				return Value{}, err
			}
			m.Set(pair.Key, v)
		}
		return Object(m), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrInvalidInputType, in)
	}
}

func fromUint(n uint64) (Value, error) {
	if n > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrInvalidInputType, n)
	}
	return Int(int64(n)), nil
}

// MappingFromJSON decodes a JSON object, keeping the key order of its top
// level. Empty input or null is an empty mapping.
func MappingFromJSON(raw []byte) (*Mapping, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return NewMapping(), nil
	}

	// Values keep their raw bytes so numbers can be decoded as json.Number
	// rather than float64.
	om := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal([]byte(trimmed), om); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInputType, err)
	}

	m := NewMapping()
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		dec := json.NewDecoder(bytes.NewReader(pair.Value))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidInputType, pair.Key, err)
		}
		v, err := fromAny(decoded, 1)
		if err != nil {
			return nil, err
		}
		m.Set(pair.Key, v)
	}
	return m, nil
}
