package session

import (
	"fmt"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/frame"
	"github.com/danmuck/viaduct/internal/protocol/wamp"
)

// windowWriter appends into a fixed slice and refuses to grow it.
type windowWriter struct {
	buf []byte
	n   int
}

func (w *windowWriter) Write(p []byte) (int, error) {
	if len(p) > len(w.buf)-w.n {
		return 0, fmt.Errorf("%w: encoded message exceeds %d bytes", protocol.ErrFrameTooLarge, len(w.buf))
	}
	w.n += copy(w.buf[w.n:], p)
	return len(p), nil
}

func (w *windowWriter) WriteByte(c byte) error {
	if w.n >= len(w.buf) {
		return fmt.Errorf("%w: encoded message exceeds %d bytes", protocol.ErrFrameTooLarge, len(w.buf))
	}
	w.buf[w.n] = c
	w.n++
	return nil
}

// Send validates msg, encodes it into the transmit window and writes one
// data frame. Oversized messages fail before any I/O.
func (s *Session) Send(msg wamp.List) error {
	if !s.negotiated {
		return protocol.ErrNotNegotiated
	}
	if err := wamp.Validate(msg); err != nil {
		return err
	}
	s.out.n = 0
	if err := wamp.Encode(s.enc, msg); err != nil {
		return err
	}
	return s.writeFrame(frame.KindData, s.out.n)
}

// Ping sends a ping frame carrying payload.
func (s *Session) Ping(payload []byte) error {
	if !s.negotiated {
		return protocol.ErrNotNegotiated
	}
	if len(payload) > s.maxFrame {
		return fmt.Errorf("%w: ping of %d bytes exceeds %d", protocol.ErrFrameTooLarge, len(payload), s.maxFrame)
	}
	n := copy(s.out.buf, payload)
	return s.writeFrame(frame.KindPing, n)
}

// Hello sends HELLO for realm advertising roles.
func (s *Session) Hello(realm string, roles ...wamp.Role) error {
	return s.Send(wamp.NewHello(realm, roles...))
}

// Publish sends PUBLISH and returns its request id.
func (s *Session) Publish(topic string, options wamp.Dict, args wamp.List, kwargs wamp.Dict) (uint64, error) {
	if !s.negotiated {
		return 0, protocol.ErrNotNegotiated
	}
	id := s.NextRequestID()
	return id, s.Send(wamp.NewPublish(id, options, topic, args, kwargs))
}

// Subscribe sends SUBSCRIBE and returns its request id.
func (s *Session) Subscribe(topic string, options wamp.Dict) (uint64, error) {
	if !s.negotiated {
		return 0, protocol.ErrNotNegotiated
	}
	id := s.NextRequestID()
	return id, s.Send(wamp.NewSubscribe(id, options, topic))
}

// Goodbye sends GOODBYE with empty details.
func (s *Session) Goodbye(reason string) error {
	return s.Send(wamp.NewGoodbye(nil, reason))
}

// writeFrame writes the header and the n payload bytes already staged in
// the transmit window.
func (s *Session) writeFrame(kind frame.Kind, n int) error {
	if err := frame.PutHeader(s.tx[:frame.HeaderLen], frame.Header{Kind: kind, Length: uint32(n)}); err != nil {
		return err
	}
	if err := s.writeAll(s.tx[:frame.HeaderLen+n]); err != nil {
		return err
	}
	s.observer.FrameSent(kind, n)
	return nil
}

func (s *Session) writeAll(b []byte) error {
	stalls := 0
	for len(b) > 0 {
		n, err := s.t.Write(b)
		b = b[n:]
		if err != nil {
			return fmt.Errorf("%w: %d bytes unsent: %v", protocol.ErrShortWrite, len(b), err)
		}
		if n > 0 {
			stalls = 0
			continue
		}
		stalls++
		if stalls >= s.cfg.MaxWriteStalls {
			return fmt.Errorf("%w: %d bytes unsent after %d stalled writes", protocol.ErrShortWrite, len(b), stalls)
		}
	}
	return nil
}
