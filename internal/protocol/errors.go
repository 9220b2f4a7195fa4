package protocol

import "errors"

// Handshake failures. All are fatal for the connection attempt.
var (
	ErrShortWrite            = errors.New("protocol: short write")
	ErrShortRead             = errors.New("protocol: short read")
	ErrBadMagic              = errors.New("protocol: invalid magic")
	ErrSerializationMismatch = errors.New("protocol: serialization mismatch")
	ErrHandshakeRejected     = errors.New("protocol: handshake rejected")
	ErrUnsupportedSerializer = errors.New("protocol: unsupported serializer")
	ErrInvalidLengthExp      = errors.New("protocol: invalid max length exponent")
)

// Framing failures. Fatal for the connection.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame too large")
	ErrUnknownFrameKind = errors.New("protocol: unknown frame kind")
	ErrNotNegotiated    = errors.New("protocol: session not negotiated")
)

// Message decoding failures. They fail the message being decoded; the
// remaining bytes of that payload are undefined.
var (
	ErrTruncated      = errors.New("protocol: truncated data")
	ErrUnexpectedType = errors.New("protocol: unexpected value type")
	ErrDecode         = errors.New("protocol: decode failed")
)
