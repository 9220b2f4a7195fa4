package frame

import (
	"fmt"

	"github.com/danmuck/viaduct/internal/protocol"
)

// HandshakeLen is the size of both handshake request and response.
const HandshakeLen = 4

// RejectCode is the error code a router returns in the high nibble of
// byte 1 when it refuses the handshake.
type RejectCode uint8

const (
	RejectIllegal               RejectCode = 0
	RejectSerializerUnsupported RejectCode = 1
	RejectMaxLengthUnacceptable RejectCode = 2
	RejectReservedBitsUsed      RejectCode = 3
	RejectMaxConnections        RejectCode = 4
)

func (c RejectCode) String() string {
	switch c {
	case RejectIllegal:
		return "illegal"
	case RejectSerializerUnsupported:
		return "serializer unsupported"
	case RejectMaxLengthUnacceptable:
		return "maximum message length unacceptable"
	case RejectReservedBitsUsed:
		return "use of reserved bits"
	case RejectMaxConnections:
		return "maximum connection count reached"
	default:
		return fmt.Sprintf("code(%d)", uint8(c))
	}
}

// Handshake is one side's announcement: the receive limit exponent and
// the serialization id.
type Handshake struct {
	LengthExp     uint8
	Serialization protocol.SerializationID
}

// MaxFrameSize returns the payload limit announced by h.
func (h Handshake) MaxFrameSize() int {
	return MaxFrameSize(h.LengthExp)
}

// EncodeHandshake returns [magic, exp<<4|serialization, 0, 0].
func EncodeHandshake(h Handshake) ([HandshakeLen]byte, error) {
	var buf [HandshakeLen]byte
	if h.LengthExp > MaxLengthExp {
		return buf, fmt.Errorf("%w: %d", protocol.ErrInvalidLengthExp, h.LengthExp)
	}
	if h.Serialization == 0 || h.Serialization > 0x0F {
		return buf, fmt.Errorf("%w: id %d", protocol.ErrUnsupportedSerializer, uint8(h.Serialization))
	}
	buf[0] = protocol.Magic
	buf[1] = h.LengthExp<<4 | byte(h.Serialization)
	return buf, nil
}

// DecodeHandshake parses a router response. A zero serialization nibble
// is the router's error reply; it matches both ErrSerializationMismatch and
// ErrHandshakeRejected.
func DecodeHandshake(b []byte) (Handshake, error) {
	if len(b) < HandshakeLen {
		return Handshake{}, fmt.Errorf("%w: handshake has %d bytes", protocol.ErrShortRead, len(b))
	}
	if b[0] != protocol.Magic {
		return Handshake{}, fmt.Errorf("%w: got 0x%02x", protocol.ErrBadMagic, b[0])
	}
	serialization := protocol.SerializationID(b[1] & 0x0F)
	if serialization == 0 {
		code := RejectCode(b[1] >> 4)
		return Handshake{}, fmt.Errorf("%w: %w: %s", protocol.ErrSerializationMismatch, protocol.ErrHandshakeRejected, code)
	}
	return Handshake{LengthExp: b[1] >> 4, Serialization: serialization}, nil
}
