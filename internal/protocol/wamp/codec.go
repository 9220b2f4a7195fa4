package wamp

import (
	"fmt"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/serializer"
)

// Encode writes v depth-first through enc. Dict keys are encoded as strings.
// Containers are walked with an explicit stack, so nesting depth is bounded
// by memory rather than goroutine stack.
func Encode(enc serializer.Encoder, v Value) error {
	var stack []encodeFrame
	for {
		var err error
		switch tv := v.(type) {
		case Int:
			err = enc.EncodeInt(int64(tv))
		case Bool:
			err = enc.EncodeBool(bool(tv))
		case String:
			err = enc.EncodeString(string(tv))
		case Float:
			err = enc.EncodeFloat(float64(tv))
		case List:
			err = enc.EncodeArrayHeader(len(tv))
			if err == nil && len(tv) > 0 {
				stack = append(stack, encodeFrame{list: tv})
			}
		case Dict:
			err = enc.EncodeMapHeader(len(tv))
			if err == nil && len(tv) > 0 {
				stack = append(stack, encodeFrame{dict: tv, isDict: true})
			}
		default:
			err = fmt.Errorf("%w: cannot encode %T", protocol.ErrUnexpectedType, v)
		}
		if err != nil {
			return err
		}

		for len(stack) > 0 && stack[len(stack)-1].done() {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return nil
		}
		top := &stack[len(stack)-1]
		if top.isDict {
			e := top.dict[top.next]
			if err := enc.EncodeString(e.Key); err != nil {
				return err
			}
			v = e.Value
		} else {
			v = top.list[top.next]
		}
		top.next++
	}
}

type encodeFrame struct {
	list   List
	dict   Dict
	isDict bool
	next   int
}

func (f *encodeFrame) done() bool {
	if f.isDict {
		return f.next >= len(f.dict)
	}
	return f.next >= len(f.list)
}

// DecodeValue reads one complete value. Nil, binary and extension values
// have no Value variant and fail with ErrUnexpectedType. Open containers
// live on a heap stack; a deeply nested payload costs memory, not
// goroutine stack.
func DecodeValue(dec serializer.Decoder) (Value, error) {
	var stack []decodeFrame
	for {
		if n := len(stack); n > 0 && stack[n-1].isDict {
			key, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			stack[n-1].key = key
		}
		v, open, opened, err := decodeItem(dec)
		if err != nil {
			return nil, err
		}
		if opened {
			stack = append(stack, open)
			continue
		}

		for {
			n := len(stack)
			if n == 0 {
				return v, nil
			}
			top := &stack[n-1]
			if top.isDict {
				top.dict = append(top.dict, Entry{Key: top.key, Value: v})
			} else {
				top.list = append(top.list, v)
			}
			top.left--
			if top.left > 0 {
				break
			}
			v = top.value()
			stack = stack[:n-1]
		}
	}
}

type decodeFrame struct {
	list   List
	dict   Dict
	isDict bool
	left   int
	key    string
}

func (f *decodeFrame) value() Value {
	if f.isDict {
		return f.dict
	}
	return f.list
}

// decodeItem reads a scalar, an empty container, or the head of a
// non-empty container, which it reports as opened.
func decodeItem(dec serializer.Decoder) (Value, decodeFrame, bool, error) {
	k, err := dec.PeekKind()
	if err != nil {
		return nil, decodeFrame{}, false, err
	}
	switch k {
	case serializer.KindInt:
		v, err := dec.DecodeInt()
		return Int(v), decodeFrame{}, false, err
	case serializer.KindBool:
		v, err := dec.DecodeBool()
		return Bool(v), decodeFrame{}, false, err
	case serializer.KindString:
		v, err := dec.DecodeString()
		return String(v), decodeFrame{}, false, err
	case serializer.KindFloat:
		v, err := dec.DecodeFloat()
		return Float(v), decodeFrame{}, false, err
	case serializer.KindArray:
		n, err := dec.DecodeArrayHeader()
		if err != nil {
			return nil, decodeFrame{}, false, err
		}
		list := make(List, 0, capHint(n, dec))
		if n == 0 {
			return list, decodeFrame{}, false, nil
		}
		return nil, decodeFrame{list: list, left: n}, true, nil
	case serializer.KindMap:
		n, err := dec.DecodeMapHeader()
		if err != nil {
			return nil, decodeFrame{}, false, err
		}
		dict := make(Dict, 0, capHint(n, dec))
		if n == 0 {
			return dict, decodeFrame{}, false, nil
		}
		return nil, decodeFrame{dict: dict, isDict: true, left: n}, true, nil
	default:
		return nil, decodeFrame{}, false, fmt.Errorf("%w: no value variant for %s", protocol.ErrUnexpectedType, k)
	}
}

// DecodeList reads an array of values.
func DecodeList(dec serializer.Decoder) (List, error) {
	if err := expectContainer(dec, serializer.KindArray); err != nil {
		return nil, err
	}
	v, err := DecodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v.(List), nil
}

// DecodeDict reads a map with string keys, preserving wire order.
func DecodeDict(dec serializer.Decoder) (Dict, error) {
	if err := expectContainer(dec, serializer.KindMap); err != nil {
		return nil, err
	}
	v, err := DecodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v.(Dict), nil
}

func expectContainer(dec serializer.Decoder, want serializer.Kind) error {
	k, err := dec.PeekKind()
	if err != nil {
		return err
	}
	if k != want {
		return fmt.Errorf("%w: got %s, want %s", protocol.ErrUnexpectedType, k, want)
	}
	return nil
}

// Skip consumes exactly one value of any kind. It counts the values still
// owed instead of recursing: each container head adds its children.
func Skip(dec serializer.Decoder) error {
	for pending := 1; pending > 0; pending-- {
		k, err := dec.PeekKind()
		if err != nil {
			return err
		}
		switch k {
		case serializer.KindArray:
			n, err := dec.DecodeArrayHeader()
			if err != nil {
				return err
			}
			pending += n
		case serializer.KindMap:
			n, err := dec.DecodeMapHeader()
			if err != nil {
				return err
			}
			pending += 2 * n
		default:
			if err := dec.SkipScalar(); err != nil {
				return err
			}
		}
	}
	return nil
}

// SkipN skips n consecutive values.
func SkipN(dec serializer.Decoder, n int) error {
	for i := 0; i < n; i++ {
		if err := Skip(dec); err != nil {
			return err
		}
	}
	return nil
}

// capHint bounds preallocation by the bytes left: every element needs at
// least one.
func capHint(n int, dec serializer.Decoder) int {
	if rem := dec.Remaining(); n > rem {
		return rem
	}
	return n
}
