package protocol

// Magic is the first byte of both handshake request and response.
const Magic byte = 0x7F

// SerializationID selects the body encoding during the handshake.
type SerializationID uint8

const (
	SerializationJSON    SerializationID = 1
	SerializationMsgPack SerializationID = 2
	SerializationCBOR    SerializationID = 3
)

func (id SerializationID) String() string {
	switch id {
	case SerializationJSON:
		return "json"
	case SerializationMsgPack:
		return "msgpack"
	case SerializationCBOR:
		return "cbor"
	default:
		return "unknown"
	}
}

// MessageType is the integer code in field 0 of every WAMP message.
type MessageType int64

const (
	MessageHello        MessageType = 1
	MessageWelcome      MessageType = 2
	MessageAbort        MessageType = 3
	MessageChallenge    MessageType = 4
	MessageAuthenticate MessageType = 5
	MessageGoodbye      MessageType = 6
	MessageHeartbeat    MessageType = 7
	MessageError        MessageType = 8

	MessagePublish   MessageType = 16
	MessagePublished MessageType = 17

	MessageSubscribe    MessageType = 32
	MessageSubscribed   MessageType = 33
	MessageUnsubscribe  MessageType = 34
	MessageUnsubscribed MessageType = 35
	MessageEvent        MessageType = 36

	MessageCall   MessageType = 48
	MessageCancel MessageType = 49
	MessageResult MessageType = 50

	MessageRegister     MessageType = 64
	MessageRegistered   MessageType = 65
	MessageUnregister   MessageType = 66
	MessageUnregistered MessageType = 67
	MessageInvocation   MessageType = 68
	MessageInterrupt    MessageType = 69
	MessageYield        MessageType = 70
)

var messageTypeNames = map[MessageType]string{
	MessageHello:        "HELLO",
	MessageWelcome:      "WELCOME",
	MessageAbort:        "ABORT",
	MessageChallenge:    "CHALLENGE",
	MessageAuthenticate: "AUTHENTICATE",
	MessageGoodbye:      "GOODBYE",
	MessageHeartbeat:    "HEARTBEAT",
	MessageError:        "ERROR",
	MessagePublish:      "PUBLISH",
	MessagePublished:    "PUBLISHED",
	MessageSubscribe:    "SUBSCRIBE",
	MessageSubscribed:   "SUBSCRIBED",
	MessageUnsubscribe:  "UNSUBSCRIBE",
	MessageUnsubscribed: "UNSUBSCRIBED",
	MessageEvent:        "EVENT",
	MessageCall:         "CALL",
	MessageCancel:       "CANCEL",
	MessageResult:       "RESULT",
	MessageRegister:     "REGISTER",
	MessageRegistered:   "REGISTERED",
	MessageUnregister:   "UNREGISTER",
	MessageUnregistered: "UNREGISTERED",
	MessageInvocation:   "INVOCATION",
	MessageInterrupt:    "INTERRUPT",
	MessageYield:        "YIELD",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}
