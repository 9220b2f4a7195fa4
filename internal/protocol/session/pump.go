package session

import (
	"errors"
	"fmt"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/frame"
)

// Pump makes progress on the inbound frame. It returns true when a data
// frame was handed to the Handler during this call. A (0, nil) read
// returns (false, nil) with no state change, so Pump can be polled.
//
// ErrUnknownFrameKind, ErrFrameTooLarge and transport errors are fatal
// for the connection. A read error is sticky; bytes delivered alongside it
// are still framed and dispatched before it is reported. A Handler error is returned with true and leaves the
// session ready for the next frame.
func (s *Session) Pump() (bool, error) {
	if !s.negotiated {
		return false, protocol.ErrNotNegotiated
	}
	for {
		if s.remaining > 0 {
			if s.readErr != nil {
				return false, s.readErr
			}
			n, err := s.t.Read(s.rx[s.filled : s.filled+s.remaining])
			s.filled += n
			s.remaining -= n
			if err != nil {
				// bytes that completed the unit are handled first; the
				// error surfaces once more input is needed
				s.readErr = err
				if s.remaining > 0 {
					return false, err
				}
			}
			if s.remaining > 0 {
				return false, nil
			}
		}

		if s.state == awaitingPayload {
			return s.dispatch()
		}

		h, err := frame.DecodeHeader(s.rx[:frame.HeaderLen])
		if err != nil {
			return false, err
		}
		if int(h.Length) > s.maxFrame {
			return false, fmt.Errorf("%w: %s frame of %d bytes exceeds %d",
				protocol.ErrFrameTooLarge, h.Kind, h.Length, s.maxFrame)
		}
		s.state = awaitingPayload
		s.kind = h.Kind
		s.filled = 0
		s.remaining = int(h.Length)
	}
}

func (s *Session) dispatch() (bool, error) {
	defer s.resetRead()
	payload := s.rx[:s.filled]
	s.observer.FrameReceived(s.kind, len(payload))
	s.log.Debug().Str("kind", s.kind.String()).Int("length", len(payload)).Msg("session.Pump frame")

	switch s.kind {
	case frame.KindPing:
		n := copy(s.out.buf, payload)
		return false, s.writeFrame(frame.KindPong, n)
	case frame.KindPong:
		return false, nil
	}

	if s.handler == nil {
		return true, nil
	}
	s.dec.Reset(payload)
	if err := s.handler.HandleMessage(payload, s.dec); err != nil {
		s.observer.MessageFailed(err)
		if !isMessageError(err) {
			err = fmt.Errorf("%w: %w", protocol.ErrDecode, err)
		}
		return true, err
	}
	return true, nil
}

func isMessageError(err error) bool {
	return errors.Is(err, protocol.ErrDecode) ||
		errors.Is(err, protocol.ErrTruncated) ||
		errors.Is(err, protocol.ErrUnexpectedType)
}
