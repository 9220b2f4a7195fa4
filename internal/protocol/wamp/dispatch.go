package wamp

import (
	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/serializer"
)

// Dispatcher decodes inbound messages by type and hands them to the
// matching callback. Types without a callback are not decoded past the
// envelope. It satisfies session.Handler.
type Dispatcher struct {
	OnWelcome    func(Welcome)
	OnAbort      func(Abort)
	OnGoodbye    func(Goodbye)
	OnPublished  func(Published)
	OnSubscribed func(Subscribed)
	OnEvent      func(Event)
	// OnOther receives every message type this package does not decode,
	// including RPC and authentication messages.
	OnOther func(t protocol.MessageType, payload []byte)
}

// HandleMessage expects dec to be positioned at the start of payload.
func (d *Dispatcher) HandleMessage(payload []byte, dec serializer.Decoder) error {
	t, n, err := ReadEnvelope(dec)
	if err != nil {
		return err
	}
	switch t {
	case protocol.MessageWelcome:
		if d.OnWelcome == nil {
			return nil
		}
		w, err := decodeWelcomeBody(dec, n)
		if err != nil {
			return err
		}
		d.OnWelcome(w)
	case protocol.MessageAbort:
		if d.OnAbort == nil {
			return nil
		}
		details, reason, err := decodeDetailsReason(dec, t, n)
		if err != nil {
			return err
		}
		d.OnAbort(Abort{Details: details, Reason: reason})
	case protocol.MessageGoodbye:
		if d.OnGoodbye == nil {
			return nil
		}
		details, reason, err := decodeDetailsReason(dec, t, n)
		if err != nil {
			return err
		}
		d.OnGoodbye(Goodbye{Details: details, Reason: reason})
	case protocol.MessagePublished:
		if d.OnPublished == nil {
			return nil
		}
		req, id, err := decodeRequestAndID(dec, t, n)
		if err != nil {
			return err
		}
		d.OnPublished(Published{Request: req, Publication: id})
	case protocol.MessageSubscribed:
		if d.OnSubscribed == nil {
			return nil
		}
		req, id, err := decodeRequestAndID(dec, t, n)
		if err != nil {
			return err
		}
		d.OnSubscribed(Subscribed{Request: req, Subscription: id})
	case protocol.MessageEvent:
		if d.OnEvent == nil {
			return nil
		}
		ev, err := decodeEventBody(dec, n)
		if err != nil {
			return err
		}
		d.OnEvent(ev)
	default:
		if d.OnOther != nil {
			d.OnOther(t, payload)
		}
	}
	return nil
}
