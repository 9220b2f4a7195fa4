package transport

import (
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/danmuck/viaduct/internal/testutil/testlog"
)

func TestConnNonBlockingReadReturnsZero(t *testing.T) {
	testlog.Start(t)
	client, peer := net.Pipe()
	defer peer.Close()
	c := NewConn(client, 0)
	defer c.Close()
	if err := c.SetNonBlocking(true); err != nil {
		t.Fatalf("set non-blocking: %v", err)
	}

	buf := make([]byte, 8)
	n, err := c.Read(buf)
	if n != 0 || err != nil {
		t.Fatalf("expected (0, nil) with no data, got (%d, %v)", n, err)
	}

	go func() { _, _ = peer.Write([]byte("abc")) }()
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < 3 && time.Now().Before(deadline) {
		n, err := c.Read(buf[got:])
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got += n
	}
	if string(buf[:got]) != "abc" {
		t.Fatalf("unexpected data %q", buf[:got])
	}
}

func TestConnBlockingReadTimeout(t *testing.T) {
	testlog.Start(t)
	client, peer := net.Pipe()
	defer peer.Close()
	c := NewConn(client, 20*time.Millisecond)
	defer c.Close()

	_, err := c.Read(make([]byte, 4))
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("expected deadline error in blocking mode, got %v", err)
	}
}
