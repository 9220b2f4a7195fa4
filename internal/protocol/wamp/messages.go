package wamp

import "github.com/danmuck/viaduct/internal/protocol"

// Role is a capability a client advertises in HELLO.
type Role string

const (
	RolePublisher  Role = "publisher"
	RoleSubscriber Role = "subscriber"
	RoleCaller     Role = "caller"
	RoleCallee     Role = "callee"
)

// NewHello builds [HELLO, realm, {"roles": {role: {}, ...}}]. Per-role
// feature dicts are always empty.
func NewHello(realm string, roles ...Role) List {
	roleDict := make(Dict, 0, len(roles))
	for _, r := range roles {
		roleDict = append(roleDict, Entry{Key: string(r), Value: Dict{}})
	}
	return List{
		Int(protocol.MessageHello),
		String(realm),
		Dict{{Key: "roles", Value: roleDict}},
	}
}

// NewPublish builds [PUBLISH, requestID, options, topic, args?, kwargs?].
//
// Both trailing fields are present when kwargs is non-empty, args alone
// when only args is non-empty, neither otherwise. Once kwargs is present a
// missing args is sent as an empty list so no position is left empty.
func NewPublish(requestID uint64, options Dict, topic string, args List, kwargs Dict) List {
	if options == nil {
		options = Dict{}
	}
	msg := make(List, 0, 6)
	msg = append(msg,
		Int(protocol.MessagePublish),
		Int(requestID),
		options,
		String(topic),
	)
	switch {
	case len(kwargs) > 0:
		if args == nil {
			args = List{}
		}
		msg = append(msg, args, kwargs)
	case len(args) > 0:
		msg = append(msg, args)
	}
	return msg
}

// NewSubscribe builds [SUBSCRIBE, requestID, options, topic].
func NewSubscribe(requestID uint64, options Dict, topic string) List {
	if options == nil {
		options = Dict{}
	}
	return List{
		Int(protocol.MessageSubscribe),
		Int(requestID),
		options,
		String(topic),
	}
}

// NewGoodbye builds [GOODBYE, details, reason].
func NewGoodbye(details Dict, reason string) List {
	if details == nil {
		details = Dict{}
	}
	return List{
		Int(protocol.MessageGoodbye),
		details,
		String(reason),
	}
}

// Close reasons used with GOODBYE.
const (
	ReasonCloseRealm     = "wamp.close.close_realm"
	ReasonGoodbyeAndOut  = "wamp.close.goodbye_and_out"
	ReasonSystemShutdown = "wamp.close.system_shutdown"
)
