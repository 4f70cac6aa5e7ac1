// Package jsonvalue represents decoded JSON as a tagged variant and
// resolves dotted field paths against it.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind tags the dynamic type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a recursive JSON variant: null, bool, int, float, string,
// an ordered sequence of values, or a mapping from string to value.
// Integers and floats are distinguishable by Kind but compare
// numerically against each other.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	seq  []Value
	keys []string // preserves mapping insertion order
	vals map[string]Value
}

// Null is the zero Value, representing JSON null.
var Null = Value{kind: KindNull}

func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Int(i int64) Value    { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

// Sequence builds an ordered-sequence Value.
func Sequence(items []Value) Value {
	return Value{kind: KindSequence, seq: items}
}

// Mapping builds a mapping Value, preserving the supplied key order.
func Mapping(keys []string, vals map[string]Value) Value {
	return Value{kind: KindMapping, keys: keys, vals: vals}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) IsNumeric() bool  { return v.kind == KindInt || v.kind == KindFloat }
func (v Value) IsSequence() bool { return v.kind == KindSequence }
func (v Value) IsMapping() bool  { return v.kind == KindMapping }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Number returns the value as a float64 regardless of whether it was
// decoded as an integer or a float, for uniform numeric comparison.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

func (v Value) Sequence() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.seq, true
}

// MappingGet looks up a key in a mapping Value.
func (v Value) MappingGet(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Null, false
	}
	val, ok := v.vals[key]
	return val, ok
}

// Keys returns mapping keys in the order the mapping was built with;
// for mappings produced by Decode that order is sorted, not the source
// order. Nil for non-mappings.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	return v.keys
}

// Equal reports deep, kind-aware equality. Numeric kinds cross-compare
// by value: Int(2) equals Float(2.0).
func Equal(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		af, _ := a.Number()
		bf, _ := b.Number()
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for _, k := range a.keys {
			bv, ok := b.vals[k]
			if !ok || !Equal(a.vals[k], bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Lexical renders a scalar Value in its canonical JSON lexical form,
// used by the Routing Table to turn an extracted field into a lookup
// key. Strings are used verbatim (without quotes).
func Lexical(v Value) string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// Decode parses raw JSON bytes into a Value tree. Numbers are decoded
// with json.Number so integer and floating-point literals remain
// distinguishable.
func Decode(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return Null, err
	}
	if dec.More() {
		return Null, fmt.Errorf("jsonvalue: trailing data after JSON value")
	}
	return fromGeneric(generic), nil
}

func fromGeneric(g any) Value {
	switch t := g.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case string:
		return String(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = fromGeneric(item)
		}
		return Sequence(items)
	case map[string]any:
		// encoding/json does not preserve object key order once decoded
		// into map[string]any; re-derive a stable order by re-scanning
		// is not possible here, so keys are sorted for determinism.
		keys := make([]string, 0, len(t))
		vals := make(map[string]Value, len(t))
		for k, v := range t {
			keys = append(keys, k)
			vals[k] = fromGeneric(v)
		}
		sort.Strings(keys)
		return Mapping(keys, vals)
	default:
		return Null
	}
}

// MarshalJSON renders the Value back to JSON, used for §4.7's /config
// endpoint and for re-serializing the inbound body to the Forwarder.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("jsonvalue: cannot marshal non-finite float")
		}
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindSequence:
		return json.Marshal(v.seq)
	case KindMapping:
		buf := bytes.NewBufferString("{")
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := json.Marshal(v.vals[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}
