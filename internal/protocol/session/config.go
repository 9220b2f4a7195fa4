package session

import (
	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/frame"
	"github.com/danmuck/viaduct/internal/protocol/serializer"
	"github.com/rs/zerolog"
)

// DefaultMaxWriteStalls bounds consecutive zero-byte writes before a send
// is abandoned.
const DefaultMaxWriteStalls = 64

// Config defines how a session negotiates and reports.
type Config struct {
	// MaxLengthExp requests a max frame size of 1<<(9+MaxLengthExp).
	MaxLengthExp  uint8
	Serialization protocol.SerializationID
	Registry      *serializer.Registry

	Handler  Handler
	Observer Observer
	Logger   zerolog.Logger

	// RequestIDSeed is the counter value before the first request; the
	// first request id is RequestIDSeed+1.
	RequestIDSeed  uint64
	MaxWriteStalls int
}

// DefaultConfig returns a MessagePack session requesting the largest frame.
func DefaultConfig() Config {
	return Config{
		MaxLengthExp:   frame.MaxLengthExp,
		Serialization:  protocol.SerializationMsgPack,
		Registry:       serializer.DefaultRegistry(),
		Logger:         zerolog.Nop(),
		MaxWriteStalls: DefaultMaxWriteStalls,
	}
}

// WithDefaults fills unset collaborators.
func (c Config) WithDefaults() Config {
	if c.Registry == nil {
		c.Registry = serializer.DefaultRegistry()
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.MaxWriteStalls <= 0 {
		c.MaxWriteStalls = DefaultMaxWriteStalls
	}
	return c
}

// Validate checks the negotiation inputs.
func (c Config) Validate() error {
	if c.MaxLengthExp > frame.MaxLengthExp {
		return protocol.ErrInvalidLengthExp
	}
	return nil
}
