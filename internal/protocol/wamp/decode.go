package wamp

import (
	"fmt"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/serializer"
)

// Welcome is the decoded subset of [WELCOME, session, details].
type Welcome struct {
	Session int64
}

// Abort is [ABORT, details, reason].
type Abort struct {
	Details Dict
	Reason  string
}

// Goodbye is [GOODBYE, details, reason].
type Goodbye struct {
	Details Dict
	Reason  string
}

// Published is [PUBLISHED, request, publication].
type Published struct {
	Request     int64
	Publication int64
}

// Subscribed is [SUBSCRIBED, request, subscription].
type Subscribed struct {
	Request      int64
	Subscription int64
}

// Event is the decoded subset of
// [EVENT, subscription, publication, details, args?, kwargs?].
type Event struct {
	Args   List
	Kwargs Dict
}

// ReadEnvelope reads the message array header and the type code, leaving
// dec at field 1. It returns the type and the number of fields after it.
func ReadEnvelope(dec serializer.Decoder) (protocol.MessageType, int, error) {
	n, err := dec.DecodeArrayHeader()
	if err != nil {
		return 0, 0, fmt.Errorf("wamp: message envelope: %w", err)
	}
	if n < 1 {
		return 0, 0, fmt.Errorf("%w: empty message", protocol.ErrUnexpectedType)
	}
	code, err := dec.DecodeInt()
	if err != nil {
		return 0, 0, fmt.Errorf("wamp: message type: %w", err)
	}
	return protocol.MessageType(code), n - 1, nil
}

// PeekType reports the message type of payload without keeping any
// decoder state.
func PeekType(dec serializer.Decoder, payload []byte) (protocol.MessageType, error) {
	dec.Reset(payload)
	t, _, err := ReadEnvelope(dec)
	return t, err
}

func DecodeWelcome(dec serializer.Decoder) (Welcome, error) {
	n, err := expectEnvelope(dec, protocol.MessageWelcome)
	if err != nil {
		return Welcome{}, err
	}
	return decodeWelcomeBody(dec, n)
}

func DecodeAbort(dec serializer.Decoder) (Abort, error) {
	n, err := expectEnvelope(dec, protocol.MessageAbort)
	if err != nil {
		return Abort{}, err
	}
	details, reason, err := decodeDetailsReason(dec, protocol.MessageAbort, n)
	return Abort{Details: details, Reason: reason}, err
}

func DecodeGoodbye(dec serializer.Decoder) (Goodbye, error) {
	n, err := expectEnvelope(dec, protocol.MessageGoodbye)
	if err != nil {
		return Goodbye{}, err
	}
	details, reason, err := decodeDetailsReason(dec, protocol.MessageGoodbye, n)
	return Goodbye{Details: details, Reason: reason}, err
}

func DecodePublished(dec serializer.Decoder) (Published, error) {
	n, err := expectEnvelope(dec, protocol.MessagePublished)
	if err != nil {
		return Published{}, err
	}
	req, id, err := decodeRequestAndID(dec, protocol.MessagePublished, n)
	return Published{Request: req, Publication: id}, err
}

func DecodeSubscribed(dec serializer.Decoder) (Subscribed, error) {
	n, err := expectEnvelope(dec, protocol.MessageSubscribed)
	if err != nil {
		return Subscribed{}, err
	}
	req, id, err := decodeRequestAndID(dec, protocol.MessageSubscribed, n)
	return Subscribed{Request: req, Subscription: id}, err
}

func DecodeEvent(dec serializer.Decoder) (Event, error) {
	n, err := expectEnvelope(dec, protocol.MessageEvent)
	if err != nil {
		return Event{}, err
	}
	return decodeEventBody(dec, n)
}

func expectEnvelope(dec serializer.Decoder, want protocol.MessageType) (int, error) {
	t, n, err := ReadEnvelope(dec)
	if err != nil {
		return 0, err
	}
	if t != want {
		return 0, fmt.Errorf("%w: message type %s, want %s", protocol.ErrUnexpectedType, t, want)
	}
	return n, nil
}

func decodeWelcomeBody(dec serializer.Decoder, n int) (Welcome, error) {
	if err := requireFields(protocol.MessageWelcome, n, 2); err != nil {
		return Welcome{}, err
	}
	session, err := dec.DecodeInt()
	if err != nil {
		return Welcome{}, fieldErr(protocol.MessageWelcome, "session", err)
	}
	if err := SkipN(dec, n-1); err != nil {
		return Welcome{}, fieldErr(protocol.MessageWelcome, "details", err)
	}
	return Welcome{Session: session}, nil
}

func decodeDetailsReason(dec serializer.Decoder, t protocol.MessageType, n int) (Dict, string, error) {
	if err := requireFields(t, n, 2); err != nil {
		return nil, "", err
	}
	details, err := DecodeDict(dec)
	if err != nil {
		return nil, "", fieldErr(t, "details", err)
	}
	reason, err := dec.DecodeString()
	if err != nil {
		return nil, "", fieldErr(t, "reason", err)
	}
	if err := SkipN(dec, n-2); err != nil {
		return nil, "", fieldErr(t, "trailing", err)
	}
	return details, reason, nil
}

func decodeRequestAndID(dec serializer.Decoder, t protocol.MessageType, n int) (int64, int64, error) {
	if err := requireFields(t, n, 2); err != nil {
		return 0, 0, err
	}
	req, err := dec.DecodeInt()
	if err != nil {
		return 0, 0, fieldErr(t, "request", err)
	}
	id, err := dec.DecodeInt()
	if err != nil {
		return 0, 0, fieldErr(t, "id", err)
	}
	if err := SkipN(dec, n-2); err != nil {
		return 0, 0, fieldErr(t, "trailing", err)
	}
	return req, id, nil
}

func decodeEventBody(dec serializer.Decoder, n int) (Event, error) {
	if err := requireFields(protocol.MessageEvent, n, 3); err != nil {
		return Event{}, err
	}
	// subscription, publication and details are not surfaced
	if err := SkipN(dec, 3); err != nil {
		return Event{}, fieldErr(protocol.MessageEvent, "details", err)
	}
	var ev Event
	if n > 3 {
		args, err := DecodeList(dec)
		if err != nil {
			return Event{}, fieldErr(protocol.MessageEvent, "args", err)
		}
		ev.Args = args
	}
	if n > 4 {
		kwargs, err := DecodeDict(dec)
		if err != nil {
			return Event{}, fieldErr(protocol.MessageEvent, "kwargs", err)
		}
		ev.Kwargs = kwargs
	}
	if n > 5 {
		if err := SkipN(dec, n-5); err != nil {
			return Event{}, fieldErr(protocol.MessageEvent, "trailing", err)
		}
	}
	return ev, nil
}

func requireFields(t protocol.MessageType, got, want int) error {
	if got < want {
		return fmt.Errorf("%w: %s has %d fields, want at least %d", protocol.ErrUnexpectedType, t, got, want)
	}
	return nil
}

func fieldErr(t protocol.MessageType, field string, err error) error {
	return fmt.Errorf("wamp: %s.%s: %w", t, field, err)
}
