package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client", "publisher":
		return clientTemplate, nil
	case "subscriber":
		return subscriberTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `name = "viaductctl"
addr = "127.0.0.1:9000"
realm = "turnpike.example"
roles = ["publisher"]
max_length_exp = 15
serialization = "msgpack"
transport = "conn"
dial_timeout = "5s"
handshake_timeout = "5s"
connect_attempts = 5
poll_interval = "10ms"

[publish]
topic = "messages"
interval = "5s"
args = ["some message", "some message"]

[admin]
addr = "127.0.0.1:9400"
cors_origins = ["http://localhost:3000"]
`

const subscriberTemplate = `name = "viaduct-sub"
addr = "127.0.0.1:9000"
realm = "turnpike.example"
roles = ["subscriber"]
max_length_exp = 9
serialization = "cbor"
transport = "fd"
subscribe = ["messages"]

[tls]
mode = "development"
enabled = false
`
