package config

import (
	"github.com/danmuck/viaduct/internal/protocol/serializer"
	"github.com/danmuck/viaduct/internal/protocol/session"
	"github.com/danmuck/viaduct/internal/protocol/wamp"
	"github.com/danmuck/viaduct/internal/transport"
	"github.com/rs/zerolog"
)

// SessionConfig maps the negotiation settings. Handler and Observer are
// left for the caller.
func (c ClientConfig) SessionConfig(logger zerolog.Logger) (session.Config, error) {
	id, err := serializer.ParseID(c.Serialization)
	if err != nil {
		return session.Config{}, err
	}
	cfg := session.DefaultConfig()
	cfg.MaxLengthExp = c.MaxLengthExp
	cfg.Serialization = id
	cfg.Logger = logger
	return cfg, nil
}

func (c ClientConfig) DialConfig(logger zerolog.Logger) transport.DialConfig {
	cfg := transport.DefaultDialConfig()
	cfg.Address = c.Addr
	cfg.Mode = transport.Mode(c.Transport)
	cfg.ConnectTimeout = c.DialTimeout
	cfg.HandshakeTimeout = c.HandshakeTimeout
	cfg.ReadTimeout = c.HandshakeTimeout
	cfg.PollInterval = c.PollInterval
	cfg.TLS = c.TLS
	cfg.MaxConnectAttempts = c.ConnectAttempts
	cfg.Logger = logger
	return cfg
}

func (c ClientConfig) WampRoles() []wamp.Role {
	roles := make([]wamp.Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		roles = append(roles, wamp.Role(r))
	}
	return roles
}

func (p PublishConfig) ArgList() wamp.List {
	return wamp.StringList(p.Args...)
}

func (p PublishConfig) Options() wamp.Dict {
	if !p.Acknowledge {
		return nil
	}
	return wamp.Dict{{Key: "acknowledge", Value: wamp.Bool(true)}}
}
