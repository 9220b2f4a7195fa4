package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/viaduct/internal/protocol/frame"
	"github.com/danmuck/viaduct/internal/protocol/serializer"
	"github.com/danmuck/viaduct/internal/transport"
)

type ClientConfig struct {
	Name             string              `toml:"name"`
	Addr             string              `toml:"addr"`
	Realm            string              `toml:"realm"`
	Roles            []string            `toml:"roles"`
	MaxLengthExp     uint8               `toml:"max_length_exp"`
	Serialization    string              `toml:"serialization"`
	Transport        string              `toml:"transport"`
	DialTimeout      time.Duration       `toml:"dial_timeout"`
	HandshakeTimeout time.Duration       `toml:"handshake_timeout"`
	ConnectAttempts  int                 `toml:"connect_attempts"`
	PollInterval     time.Duration       `toml:"poll_interval"`
	Subscribe        []string            `toml:"subscribe"`
	TLS              transport.TLSConfig `toml:"tls"`
	Publish          PublishConfig       `toml:"publish"`
	Admin            AdminConfig         `toml:"admin"`
}

type PublishConfig struct {
	Topic    string        `toml:"topic"`
	Interval time.Duration `toml:"interval"`
	Args     []string      `toml:"args"`
	// Acknowledge asks the router for PUBLISHED replies.
	Acknowledge bool `toml:"acknowledge"`
}

type AdminConfig struct {
	// Addr empty disables the admin server.
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	// Token guards /status and /metrics when set.
	Token string `toml:"token"`
}

// DefaultClientConfig mirrors the demo publisher: MessagePack, largest
// frames, two string args to "messages" every 5s.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Name:             "viaductctl",
		Addr:             "127.0.0.1:9000",
		Realm:            "turnpike.example",
		Roles:            []string{"publisher"},
		MaxLengthExp:     frame.MaxLengthExp,
		Serialization:    "msgpack",
		Transport:        string(transport.ModeConn),
		DialTimeout:      5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		ConnectAttempts:  5,
		PollInterval:     10 * time.Millisecond,
		Publish: PublishConfig{
			Topic:    "messages",
			Interval: 5 * time.Second,
			Args:     []string{"some message", "some message"},
		},
	}
}

// LoadClientConfig decodes path over the defaults. Unknown keys are
// rejected.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return ClientConfig{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("client config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("client config missing addr")
	}
	if strings.TrimSpace(cfg.Realm) == "" {
		return fmt.Errorf("client config missing realm")
	}
	if cfg.MaxLengthExp > frame.MaxLengthExp {
		return fmt.Errorf("client config max_length_exp %d out of range 0..%d", cfg.MaxLengthExp, frame.MaxLengthExp)
	}
	id, err := serializer.ParseID(cfg.Serialization)
	if err == nil {
		_, err = serializer.DefaultRegistry().Lookup(id)
	}
	if err != nil {
		return fmt.Errorf("client config serialization: %w", err)
	}
	switch transport.Mode(cfg.Transport) {
	case transport.ModeConn, transport.ModeFD:
	default:
		return fmt.Errorf("client config transport %q: want conn or fd", cfg.Transport)
	}
	for i, role := range cfg.Roles {
		if strings.TrimSpace(role) == "" {
			return fmt.Errorf("role[%d] is empty", i)
		}
	}
	if cfg.Publish.Topic != "" && cfg.Publish.Interval <= 0 {
		return fmt.Errorf("publish interval must be positive when topic is set")
	}
	for i, topic := range cfg.Subscribe {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("subscribe[%d] is empty", i)
		}
	}
	if err := cfg.TLS.Validate(); err != nil {
		return fmt.Errorf("client config tls: %w", err)
	}
	return nil
}
