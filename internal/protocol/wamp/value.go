// Package wamp holds the recursive value model, the codec that maps it
// onto a serializer, and the WAMP message builders and decoders.
package wamp

import "fmt"

// Kind tags a Value variant.
type Kind uint8

const (
	KindInt Kind = 1 << iota
	KindBool
	KindString
	KindList
	KindDict
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one of Int, Bool, String, List, Dict or Float. Containers own
// their children.
type Value interface {
	Kind() Kind
}

type (
	Int    int64
	Bool   bool
	String string
	Float  float64
	List   []Value
	Dict   []Entry
)

// Entry is one Dict pair. Keys are always strings on the wire.
type Entry struct {
	Key   string
	Value Value
}

func (Int) Kind() Kind    { return KindInt }
func (Bool) Kind() Kind   { return KindBool }
func (String) Kind() Kind { return KindString }
func (Float) Kind() Kind  { return KindFloat }
func (List) Kind() Kind   { return KindList }
func (Dict) Kind() Kind   { return KindDict }

// Get returns the first value stored under key.
func (d Dict) Get(key string) (Value, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Strings converts a list of String values. Any other element kind is
// reported by index.
func (l List) Strings() ([]string, error) {
	out := make([]string, 0, len(l))
	for i, v := range l {
		s, ok := v.(String)
		if !ok {
			return nil, fmt.Errorf("wamp: list[%d] is %s, want string", i, kindOf(v))
		}
		out = append(out, string(s))
	}
	return out, nil
}

// StringList builds a List of String values.
func StringList(items ...string) List {
	out := make(List, 0, len(items))
	for _, s := range items {
		out = append(out, String(s))
	}
	return out
}

func kindOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
