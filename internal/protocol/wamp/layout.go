package wamp

import (
	"fmt"

	"github.com/danmuck/viaduct/internal/protocol"
)

// FieldSpec declares one positional field after the message type code.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Optional bool
}

// ValidationError reports the first layout violation of a message.
type ValidationError struct {
	MessageType protocol.MessageType
	Position    int
	Field       string
	Reason      string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("wamp: message_type=%s: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("wamp: message_type=%s field[%d]=%s: %s", e.MessageType, e.Position, e.Field, e.Reason)
}

var layouts = map[protocol.MessageType][]FieldSpec{
	protocol.MessageHello: {
		{Name: "realm", Kind: KindString},
		{Name: "details", Kind: KindDict},
	},
	protocol.MessageWelcome: {
		{Name: "session", Kind: KindInt},
		{Name: "details", Kind: KindDict},
	},
	protocol.MessageAbort: {
		{Name: "details", Kind: KindDict},
		{Name: "reason", Kind: KindString},
	},
	protocol.MessageGoodbye: {
		{Name: "details", Kind: KindDict},
		{Name: "reason", Kind: KindString},
	},
	protocol.MessagePublish: {
		{Name: "request", Kind: KindInt},
		{Name: "options", Kind: KindDict},
		{Name: "topic", Kind: KindString},
		{Name: "args", Kind: KindList, Optional: true},
		{Name: "kwargs", Kind: KindDict, Optional: true},
	},
	protocol.MessagePublished: {
		{Name: "request", Kind: KindInt},
		{Name: "publication", Kind: KindInt},
	},
	protocol.MessageSubscribe: {
		{Name: "request", Kind: KindInt},
		{Name: "options", Kind: KindDict},
		{Name: "topic", Kind: KindString},
	},
	protocol.MessageSubscribed: {
		{Name: "request", Kind: KindInt},
		{Name: "subscription", Kind: KindInt},
	},
	protocol.MessageEvent: {
		{Name: "subscription", Kind: KindInt},
		{Name: "publication", Kind: KindInt},
		{Name: "details", Kind: KindDict},
		{Name: "args", Kind: KindList, Optional: true},
		{Name: "kwargs", Kind: KindDict, Optional: true},
	},
}

// Layout returns the positional fields of a message type.
func Layout(t protocol.MessageType) ([]FieldSpec, bool) {
	specs, ok := layouts[t]
	return specs, ok
}

// Validate checks the type code, field count and field kinds of msg
// against its layout.
func Validate(msg List) error {
	if len(msg) == 0 {
		return ValidationError{Reason: "empty message"}
	}
	code, ok := msg[0].(Int)
	if !ok {
		return ValidationError{Reason: fmt.Sprintf("type code is %s, want int", kindOf(msg[0]))}
	}
	t := protocol.MessageType(code)
	specs, ok := layouts[t]
	if !ok {
		return ValidationError{MessageType: t, Reason: "unknown message_type"}
	}
	fields := msg[1:]
	if len(fields) > len(specs) {
		return ValidationError{MessageType: t, Reason: fmt.Sprintf("%d fields, at most %d allowed", len(fields), len(specs))}
	}
	for i, spec := range specs {
		if i >= len(fields) {
			if !spec.Optional {
				return ValidationError{MessageType: t, Position: i + 1, Field: spec.Name, Reason: "missing required field"}
			}
			break
		}
		if fields[i] == nil || fields[i].Kind() != spec.Kind {
			return ValidationError{
				MessageType: t,
				Position:    i + 1,
				Field:       spec.Name,
				Reason:      fmt.Sprintf("type mismatch: got %s want %s", kindOf(fields[i]), spec.Kind),
			}
		}
	}
	return nil
}
