package signing

import (
	"bytes"
	"encoding/json"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindBool
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// Value is one node of a parameter tree: a scalar, a Mapping or a sequence.
// The zero Value is invalid and is rejected by Flatten.
type Value struct {
	kind    Kind
	str     string
	num     int64
	boolean bool
	mapping *Mapping
	seq     []Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Int(n int64) Value { return Value{kind: KindInt, num: n} }

func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Object wraps a Mapping. A nil Mapping is treated as empty.
func Object(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, mapping: m}
}

func List(items ...Value) Value { return Value{kind: KindSequence, seq: items} }

// Strings is shorthand for a sequence of string scalars.
func Strings(items ...string) Value {
	seq := make([]Value, len(items))
	for i, s := range items {
		seq[i] = String(s)
	}
	return List(seq...)
}

func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether v is a string, integer or boolean.
func (v Value) IsScalar() bool {
	return v.kind == KindString || v.kind == KindInt || v.kind == KindBool
}

func (v Value) Mapping() *Mapping { return v.mapping }

func (v Value) Items() []Value { return v.seq }

// Text renders a scalar the way it appears in a query string: strings
// verbatim, integers in decimal, booleans as 1 or 0.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindBool:
		if v.boolean {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// Interface returns the plain Go form of v (string, int64, bool,
// map[string]any or []any).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindBool:
		return v.boolean
	case KindMapping:
		out := make(map[string]any, v.mapping.Len())
		for pair := v.mapping.entries.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = pair.Value.Interface()
		}
		return out
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case KindBool:
		return json.Marshal(v.boolean)
	case KindMapping:
		return v.mapping.MarshalJSON()
	case KindSequence:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, ErrInvalidInputType
	}
}

// Mapping is an insertion-ordered set of named parameters.
type Mapping struct {
	entries *orderedmap.OrderedMap[string, Value]
}

func NewMapping() *Mapping {
	return &Mapping{entries: orderedmap.New[string, Value]()}
}

// Set stores v under key, keeping the original position when key already
// exists. It returns m so calls can be chained.
func (m *Mapping) Set(key string, v Value) *Mapping {
	m.entries.Set(key, v)
	return m
}

func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	return m.entries.Get(key)
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return m.entries.Len()
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.entries.Len())
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		v, err := pair.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
