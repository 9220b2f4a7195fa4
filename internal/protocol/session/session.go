package session

import (
	"fmt"
	"io"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/frame"
	"github.com/danmuck/viaduct/internal/protocol/serializer"
	"github.com/rs/zerolog"
)

// Transport is the byte stream a session runs over. On a non-blocking
// transport a Read returning (0, nil) means no data is available yet.
type Transport interface {
	io.Reader
	io.Writer
}

type readState uint8

const (
	awaitingHeader readState = iota
	awaitingPayload
)

// Session is one negotiated raw-socket connection.
type Session struct {
	t        Transport
	cfg      Config
	log      zerolog.Logger
	observer Observer
	handler  Handler

	ser serializer.Serializer
	enc serializer.Encoder
	dec serializer.Decoder

	lengthExp  uint8
	maxFrame   int
	negotiated bool

	// buf holds the receive window followed by the transmit window; the
	// transmit window carries HeaderLen bytes of headroom.
	buf []byte
	rx  []byte
	tx  []byte
	out windowWriter

	state     readState
	kind      frame.Kind
	filled    int
	remaining int
	readErr   error

	nextRequestID uint64
}

// New resolves the serializer and validates cfg without touching t.
func New(t Transport, cfg Config) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %d", err, cfg.MaxLengthExp)
	}
	ser, err := cfg.Registry.Lookup(cfg.Serialization)
	if err != nil {
		return nil, err
	}
	return &Session{
		t:             t,
		cfg:           cfg,
		log:           cfg.Logger.With().Str("component", "session").Logger(),
		observer:      cfg.Observer,
		handler:       cfg.Handler,
		ser:           ser,
		nextRequestID: cfg.RequestIDSeed,
	}, nil
}

// Negotiate creates a session and runs the handshake over a blocking t.
func Negotiate(t Transport, cfg Config) (*Session, error) {
	s, err := New(t, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Handshake(); err != nil {
		return nil, err
	}
	return s, nil
}

// Negotiated reports whether the handshake completed.
func (s *Session) Negotiated() bool { return s.negotiated }

// Serializer returns the negotiated serializer.
func (s *Session) Serializer() serializer.Serializer { return s.ser }

// LengthExp returns the effective length exponent.
func (s *Session) LengthExp() uint8 { return s.lengthExp }

// MaxFrameSize returns the effective max payload size in bytes.
func (s *Session) MaxFrameSize() int { return s.maxFrame }

// SetHandler replaces the data frame handler.
func (s *Session) SetHandler(h Handler) { s.handler = h }

// NextRequestID advances the request counter and returns the new id.
func (s *Session) NextRequestID() uint64 {
	s.nextRequestID++
	return s.nextRequestID
}

func (s *Session) bind(exp uint8) {
	s.lengthExp = exp
	s.maxFrame = frame.MaxFrameSize(exp)
	s.buf = make([]byte, 2*s.maxFrame+frame.HeaderLen)
	s.rx = s.buf[:s.maxFrame:s.maxFrame]
	s.tx = s.buf[s.maxFrame:]
	s.out = windowWriter{buf: s.tx[frame.HeaderLen:]}
	s.enc = s.ser.NewEncoder()
	s.enc.Reset(&s.out)
	s.dec = s.ser.NewDecoder()
	s.resetRead()
	s.negotiated = true
}

func (s *Session) resetRead() {
	s.state = awaitingHeader
	s.filled = 0
	s.remaining = frame.HeaderLen
}

// Handshake writes the client handshake and validates the router reply.
// No bytes are written after a failed validation.
func (s *Session) Handshake() error {
	req := frame.Handshake{LengthExp: s.cfg.MaxLengthExp, Serialization: s.ser.ID()}
	out, err := frame.EncodeHandshake(req)
	if err != nil {
		return err
	}
	n, err := s.t.Write(out[:])
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrShortWrite, err)
	}
	if n != len(out) {
		return fmt.Errorf("%w: wrote %d of %d handshake bytes", protocol.ErrShortWrite, n, len(out))
	}

	var in [frame.HandshakeLen]byte
	got := 0
	for got < len(in) {
		n, err := s.t.Read(in[got:])
		got += n
		if got == len(in) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: read %d of %d handshake bytes: %v", protocol.ErrShortRead, got, len(in), err)
		}
		if n == 0 {
			return fmt.Errorf("%w: read %d of %d handshake bytes", protocol.ErrShortRead, got, len(in))
		}
	}

	reply, err := frame.DecodeHandshake(in[:])
	if err != nil {
		return err
	}
	if reply.Serialization != req.Serialization {
		return fmt.Errorf("%w: requested %s, router chose %s",
			protocol.ErrSerializationMismatch, req.Serialization, reply.Serialization)
	}
	exp := req.LengthExp
	if reply.LengthExp != req.LengthExp {
		exp = min(req.LengthExp, reply.LengthExp)
		s.log.Warn().
			Uint8("requested_exp", req.LengthExp).
			Uint8("router_exp", reply.LengthExp).
			Int("max_frame", frame.MaxFrameSize(exp)).
			Msg("session.Handshake router max length differs; using the smaller")
	}
	s.bind(exp)
	s.log.Debug().
		Str("serializer", s.ser.Name()).
		Int("max_frame", s.maxFrame).
		Msg("session.Handshake negotiated")
	return nil
}
