// Package serializer defines the body encoding capability bound to a
// session after the handshake, and its MessagePack and CBOR
// implementations.
//
// Encoders write primitives and container headers sequentially to an
// io.Writer. Decoders read primitives from a payload slice and report the
// kind of the next value so callers can walk or skip arbitrary nesting.
// Neither side recurses into containers: callers own the recursion.
package serializer

import (
	"fmt"
	"io"

	"github.com/danmuck/viaduct/internal/protocol"
)

// Kind classifies the next encoded value.
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindBool
	KindFloat
	KindString
	KindBinary
	KindArray
	KindMap
	KindExt
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindExt:
		return "ext"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Encoder writes one primitive or container header per call.
type Encoder interface {
	Reset(w io.Writer)
	EncodeInt(v int64) error
	EncodeUint(v uint64) error
	EncodeBool(v bool) error
	EncodeFloat(v float64) error
	EncodeString(v string) error
	EncodeArrayHeader(n int) error
	EncodeMapHeader(n int) error
}

// Decoder reads values from a payload set with Reset.
//
// Typed reads fail with protocol.ErrUnexpectedType when the next value
// has another kind and with protocol.ErrTruncated when the payload ends
// mid-value.
type Decoder interface {
	Reset(payload []byte)
	Remaining() int
	PeekKind() (Kind, error)
	DecodeInt() (int64, error)
	DecodeBool() (bool, error)
	DecodeFloat() (float64, error)
	DecodeString() (string, error)
	DecodeArrayHeader() (int, error)
	DecodeMapHeader() (int, error)
	// SkipScalar consumes exactly one non-container value.
	SkipScalar() error
}

// Serializer is a body encoding selected by its handshake id.
type Serializer interface {
	ID() protocol.SerializationID
	Name() string
	NewEncoder() Encoder
	NewDecoder() Decoder
}

func expectKind(d Decoder, want Kind) error {
	got, err := d.PeekKind()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: got %s want %s", protocol.ErrUnexpectedType, got, want)
	}
	return nil
}
