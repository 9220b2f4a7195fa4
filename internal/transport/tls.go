package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

var (
	ErrInvalidSecurityMode     = errors.New("transport: invalid security mode")
	ErrTLSRequired             = errors.New("transport: tls required")
	ErrTLSCertFileRequired     = errors.New("transport: tls cert file required")
	ErrTLSKeyFileRequired      = errors.New("transport: tls key file required")
	ErrTLSCAFileRequired       = errors.New("transport: tls ca file required")
	ErrTLSInsecureSkipNotAllow = errors.New("transport: insecure skip verify not allowed")
)

// SecurityMode selects how strictly TLS settings are enforced.
type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

// TLSConfig describes client-side TLS for the Conn transport.
type TLSConfig struct {
	Mode               SecurityMode `toml:"mode"`
	Enabled            bool         `toml:"enabled"`
	Mutual             bool         `toml:"mutual"`
	InsecureSkipVerify bool         `toml:"insecure_skip_verify"`
	ServerName         string       `toml:"server_name"`
	CAFile             string       `toml:"ca_file"`
	CertFile           string       `toml:"cert_file"`
	KeyFile            string       `toml:"key_file"`
}

func NormalizeSecurityMode(mode SecurityMode) SecurityMode {
	if strings.TrimSpace(string(mode)) == "" {
		return SecurityModeDevelopment
	}
	return SecurityMode(strings.ToLower(strings.TrimSpace(string(mode))))
}

// Validate enforces the security mode. Production requires verified TLS.
func (c TLSConfig) Validate() error {
	mode := NormalizeSecurityMode(c.Mode)
	switch mode {
	case SecurityModeDevelopment, SecurityModeProduction:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSecurityMode, c.Mode)
	}

	if mode == SecurityModeProduction {
		if !c.Enabled {
			return ErrTLSRequired
		}
		if c.InsecureSkipVerify {
			return ErrTLSInsecureSkipNotAllow
		}
	}
	if c.Mutual && !c.Enabled {
		return ErrTLSRequired
	}
	if c.Enabled && mode == SecurityModeProduction && strings.TrimSpace(c.CAFile) == "" {
		return ErrTLSCAFileRequired
	}
	if c.Mutual {
		if strings.TrimSpace(c.CertFile) == "" {
			return ErrTLSCertFileRequired
		}
		if strings.TrimSpace(c.KeyFile) == "" {
			return ErrTLSKeyFileRequired
		}
	}
	return nil
}

// ClientConfig builds a *tls.Config for dialing addr.
func (c TLSConfig) ClientConfig(addr string) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(c.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(c.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("transport: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if c.Mutual {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
