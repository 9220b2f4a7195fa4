package serializer

import (
	"fmt"
	"strings"

	"github.com/danmuck/viaduct/internal/protocol"
)

// Registry maps handshake serialization ids to serializers.
type Registry struct {
	byID map[protocol.SerializationID]Serializer
}

func NewRegistry(serializers ...Serializer) *Registry {
	r := &Registry{byID: make(map[protocol.SerializationID]Serializer, len(serializers))}
	for _, s := range serializers {
		r.Register(s)
	}
	return r
}

// DefaultRegistry holds every serializer this module implements.
func DefaultRegistry() *Registry {
	return NewRegistry(MsgPack(), CBOR())
}

func (r *Registry) Register(s Serializer) {
	r.byID[s.ID()] = s
}

func (r *Registry) Lookup(id protocol.SerializationID) (Serializer, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s (id %d)", protocol.ErrUnsupportedSerializer, id, uint8(id))
	}
	return s, nil
}

// ParseID resolves a configuration name ("msgpack", "cbor", "json").
func ParseID(name string) (protocol.SerializationID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "msgpack", "messagepack":
		return protocol.SerializationMsgPack, nil
	case "cbor":
		return protocol.SerializationCBOR, nil
	case "json":
		return protocol.SerializationJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", protocol.ErrUnsupportedSerializer, name)
	}
}
