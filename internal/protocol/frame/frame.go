package frame

import (
	"fmt"

	"github.com/danmuck/viaduct/internal/protocol"
)

const (
	// HeaderLen is the size of the steady-state frame header.
	HeaderLen = 4
	// MaxLength is the largest payload a 24-bit length field can carry.
	MaxLength = 1<<24 - 1
	// MaxLengthExp is the largest exponent accepted in the handshake.
	MaxLengthExp uint8 = 15
)

// Kind is the frame type tag carried in header byte 0.
type Kind uint8

const (
	KindData Kind = 0
	KindPing Kind = 1
	KindPong Kind = 2
)

func (k Kind) Valid() bool {
	return k <= KindPong
}

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Header is the fixed wire header: kind byte followed by a 24-bit
// big-endian payload length.
type Header struct {
	Kind   Kind
	Length uint32
}

// MaxFrameSize returns the payload limit announced by a length exponent:
// 2^(9+exp) bytes, capped by the 24-bit length field.
func MaxFrameSize(exp uint8) int {
	if exp > MaxLengthExp {
		exp = MaxLengthExp
	}
	size := 1 << (9 + uint(exp))
	if size > MaxLength {
		return MaxLength
	}
	return size
}

// LenToBytes writes n as a 24-bit big-endian integer into dst[0:3].
func LenToBytes(n uint32, dst []byte) {
	_ = dst[2]
	dst[0] = byte(n >> 16)
	dst[1] = byte(n >> 8)
	dst[2] = byte(n)
}

// BytesToLen reads a 24-bit big-endian integer from b[0:3].
func BytesToLen(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// PutHeader encodes h into dst, which must hold HeaderLen bytes.
func PutHeader(dst []byte, h Header) error {
	if len(dst) < HeaderLen {
		return fmt.Errorf("%w: header needs %d bytes, have %d", protocol.ErrTruncated, HeaderLen, len(dst))
	}
	if !h.Kind.Valid() {
		return fmt.Errorf("%w: %d", protocol.ErrUnknownFrameKind, uint8(h.Kind))
	}
	if h.Length > MaxLength {
		return fmt.Errorf("%w: %d > %d", protocol.ErrFrameTooLarge, h.Length, MaxLength)
	}
	dst[0] = byte(h.Kind)
	LenToBytes(h.Length, dst[1:4])
	return nil
}

// EncodeHeader returns the 4 header bytes for h.
func EncodeHeader(h Header) ([HeaderLen]byte, error) {
	var buf [HeaderLen]byte
	err := PutHeader(buf[:], h)
	return buf, err
}

// DecodeHeader parses a steady-state header. Unknown kind tags are
// rejected; the length is not checked against any negotiated limit.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: header has %d bytes", protocol.ErrTruncated, len(b))
	}
	h := Header{Kind: Kind(b[0]), Length: BytesToLen(b[1:4])}
	if !h.Kind.Valid() {
		return Header{}, fmt.Errorf("%w: %d", protocol.ErrUnknownFrameKind, b[0])
	}
	return h, nil
}
