// Package protocol owns the raw-socket wire contract shared by every layer.
//
// Ownership boundary:
// - error taxonomy for handshake, framing and message decoding
// - raw-socket constants (magic, serialization ids, frame kinds)
// - WAMP message type codes
//
// Sub-packages:
// - frame: header and handshake byte layouts
// - serializer: pluggable body encodings (MessagePack, CBOR)
// - wamp: recursive value model, message builders and decoders
// - session: handshake negotiator and frame state machine
package protocol
