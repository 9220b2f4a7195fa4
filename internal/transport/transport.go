package transport

import (
	"errors"
	"io"
)

var (
	ErrAddressRequired = errors.New("transport: address required")
	ErrInvalidMode     = errors.New("transport: invalid mode")
	ErrTLSUnsupported  = errors.New("transport: tls not supported on fd transport")
	ErrClosed          = errors.New("transport: closed")
	ErrFDUnsupported   = errors.New("transport: fd transport not supported on this platform")
)

// Mode selects the stream implementation.
type Mode string

const (
	ModeConn Mode = "conn"
	ModeFD   Mode = "fd"
)

// Stream is a session transport with a switchable blocking mode.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
	SetNonBlocking(nonBlocking bool) error
}
