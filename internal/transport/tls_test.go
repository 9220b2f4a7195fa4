package transport

import (
	"context"
	"crypto/tls"
	"io"
	"testing"

	"github.com/danmuck/viaduct/internal/protocol/session"
	"github.com/danmuck/viaduct/internal/testutil/testlog"
	"github.com/danmuck/viaduct/internal/testutil/tlstest"
)

// tlsRouter accepts one TLS connection and echoes the raw-socket
// handshake.
func tlsRouter(t *testing.T, cfg *tls.Config) string {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
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
		_, _ = conn.Write(hs[:])
		_, _ = io.Copy(io.Discard, conn)
	}()
	return ln.Addr().String()
}

func TestDialTLSVerifiesRouter(t *testing.T) {
	testlog.Start(t)
	ca := tlstest.NewAuthority(t, "viaduct-test-ca")
	addr := tlsRouter(t, ca.RouterConfig(t, false))

	cfg := DefaultDialConfig()
	cfg.Address = addr
	cfg.MaxConnectAttempts = 1
	cfg.TLS = TLSConfig{Mode: SecurityModeProduction, Enabled: true, CAFile: ca.CAFile()}
	negotiateOver(t, cfg)
}

func TestDialMutualTLS(t *testing.T) {
	testlog.Start(t)
	ca := tlstest.NewAuthority(t, "viaduct-test-ca")
	addr := tlsRouter(t, ca.RouterConfig(t, true))
	certFile, keyFile := ca.ClientFiles(t, "viaductctl")

	cfg := DefaultDialConfig()
	cfg.Address = addr
	cfg.MaxConnectAttempts = 1
	cfg.TLS = TLSConfig{
		Mode:     SecurityModeProduction,
		Enabled:  true,
		Mutual:   true,
		CAFile:   ca.CAFile(),
		CertFile: certFile,
		KeyFile:  keyFile,
	}
	negotiateOver(t, cfg)
}

func TestDialTLSRejectsUnknownAuthority(t *testing.T) {
	testlog.Start(t)
	routerCA := tlstest.NewAuthority(t, "router-ca")
	otherCA := tlstest.NewAuthority(t, "other-ca")
	addr := tlsRouter(t, routerCA.RouterConfig(t, false))

	cfg := DefaultDialConfig()
	cfg.Address = addr
	cfg.MaxConnectAttempts = 1
	cfg.TLS = TLSConfig{Enabled: true, CAFile: otherCA.CAFile()}
	d, err := NewDialer(cfg)
	if err != nil {
		t.Fatalf("new dialer: %v", err)
	}
	if _, err := d.Dial(context.Background()); err == nil {
		t.Fatalf("expected verification failure")
	}
}

func negotiateOver(t *testing.T, cfg DialConfig) {
	t.Helper()
	d, err := NewDialer(cfg)
	if err != nil {
		t.Fatalf("new dialer: %v", err)
	}
	stream, err := d.Dial(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer stream.Close()
	if _, ok := stream.(*Conn).NetConn().(*tls.Conn); !ok {
		t.Fatalf("expected a tls connection")
	}
	scfg := session.DefaultConfig()
	scfg.MaxLengthExp = 0
	if _, err := session.Negotiate(stream, scfg); err != nil {
		t.Fatalf("negotiate over tls: %v", err)
	}
}
