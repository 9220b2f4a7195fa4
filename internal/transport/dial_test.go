package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/danmuck/viaduct/internal/protocol/session"
	"github.com/danmuck/viaduct/internal/protocol/wamp"
	"github.com/danmuck/viaduct/internal/testutil/testlog"
)

// fakeRouter accepts one connection, echoes the handshake and sends
// [WELCOME, 99, {}] encoded as MessagePack.
func fakeRouter(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var hs [4]byte
		if _, err := io.ReadFull(conn, hs[:]); err != nil {
			return
		}
		if _, err := conn.Write(hs[:]); err != nil {
			return
		}
		welcome := []byte{0, 0, 0, 4, 0x93, 0x02, 0x63, 0x80}
		if _, err := conn.Write(welcome); err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, conn)
	}()
	return ln.Addr().String()
}

func TestDialNegotiatesAndPumps(t *testing.T) {
	testlog.Start(t)
	for _, mode := range []Mode{ModeConn, ModeFD} {
		t.Run(string(mode), func(t *testing.T) {
			if mode == ModeFD && runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
				t.Skip("fd transport not supported on " + runtime.GOOS)
			}
			cfg := DefaultDialConfig()
			cfg.Address = fakeRouter(t)
			cfg.Mode = mode
			d, err := NewDialer(cfg)
			if err != nil {
				t.Fatalf("new dialer: %v", err)
			}
			stream, err := d.Dial(context.Background())
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer stream.Close()

			var welcome wamp.Welcome
			scfg := session.DefaultConfig()
			scfg.MaxLengthExp = 4
			scfg.Handler = &wamp.Dispatcher{OnWelcome: func(w wamp.Welcome) { welcome = w }}
			s, err := session.Negotiate(stream, scfg)
			if err != nil {
				t.Fatalf("negotiate: %v", err)
			}
			if err := stream.SetNonBlocking(true); err != nil {
				t.Fatalf("set non-blocking: %v", err)
			}

			deadline := time.Now().Add(2 * time.Second)
			for welcome.Session == 0 && time.Now().Before(deadline) {
				if _, err := s.Pump(); err != nil {
					t.Fatalf("pump: %v", err)
				}
			}
			if welcome.Session != 99 {
				t.Fatalf("expected session 99, got %d", welcome.Session)
			}
			if err := s.Hello("realm1", wamp.RolePublisher); err != nil {
				t.Fatalf("hello: %v", err)
			}
		})
	}
}

func TestDialGivesUpAfterMaxAttempts(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := DefaultDialConfig()
	cfg.Address = addr
	cfg.MaxConnectAttempts = 2
	cfg.Backoff = BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1}
	d, err := NewDialer(cfg)
	if err != nil {
		t.Fatalf("new dialer: %v", err)
	}
	if _, err := d.Dial(context.Background()); err == nil {
		t.Fatalf("expected dial to a closed port to fail")
	}
}

func TestDialConfigValidate(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultDialConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
	cfg.Address = "127.0.0.1:8080"
	cfg.Mode = "udp"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	cfg.Mode = ModeFD
	cfg.TLS.Enabled = true
	cfg.TLS.InsecureSkipVerify = true
	if err := cfg.Validate(); !errors.Is(err, ErrTLSUnsupported) {
		t.Fatalf("expected ErrTLSUnsupported, got %v", err)
	}
}

func TestTLSConfigValidate(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		cfg  TLSConfig
		want error
	}{
		{"development plain", TLSConfig{}, nil},
		{"bad mode", TLSConfig{Mode: "staging"}, ErrInvalidSecurityMode},
		{"production needs tls", TLSConfig{Mode: SecurityModeProduction}, ErrTLSRequired},
		{"production no skip", TLSConfig{Mode: SecurityModeProduction, Enabled: true, InsecureSkipVerify: true}, ErrTLSInsecureSkipNotAllow},
		{"production needs ca", TLSConfig{Mode: SecurityModeProduction, Enabled: true}, ErrTLSCAFileRequired},
		{"mutual needs tls", TLSConfig{Mutual: true}, ErrTLSRequired},
		{"mutual needs cert", TLSConfig{Enabled: true, Mutual: true}, ErrTLSCertFileRequired},
		{"mutual needs key", TLSConfig{Enabled: true, Mutual: true, CertFile: "c.pem"}, ErrTLSKeyFileRequired},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTLSClientConfigServerName(t *testing.T) {
	testlog.Start(t)
	cfg, err := TLSConfig{Enabled: true, InsecureSkipVerify: true}.ClientConfig("router.example:8080")
	if err != nil {
		t.Fatalf("client config: %v", err)
	}
	if cfg.ServerName != "router.example" {
		t.Fatalf("unexpected server name %q", cfg.ServerName)
	}
}
