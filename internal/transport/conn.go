package transport

import (
	"errors"
	"net"
	"os"
	"time"
)

// DefaultPollInterval bounds how long a non-blocking Conn read waits.
const DefaultPollInterval = time.Millisecond

// Conn adapts a net.Conn to Stream.
type Conn struct {
	conn         net.Conn
	nonBlocking  bool
	pollInterval time.Duration
	// readTimeout bounds blocking reads; zero waits forever.
	readTimeout time.Duration
}

// NewConn wraps c in blocking mode.
func NewConn(c net.Conn, readTimeout time.Duration) *Conn {
	return &Conn{conn: c, pollInterval: DefaultPollInterval, readTimeout: readTimeout}
}

// NetConn returns the wrapped connection.
func (c *Conn) NetConn() net.Conn { return c.conn }

func (c *Conn) SetNonBlocking(nonBlocking bool) error {
	c.nonBlocking = nonBlocking
	if !nonBlocking {
		return c.conn.SetReadDeadline(time.Time{})
	}
	return nil
}

// SetPollInterval changes how long a non-blocking read may wait for data.
func (c *Conn) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

func (c *Conn) Read(p []byte) (int, error) {
	switch {
	case c.nonBlocking:
		if err := c.conn.SetReadDeadline(time.Now().Add(c.pollInterval)); err != nil {
			return 0, err
		}
	case c.readTimeout > 0:
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.conn.Read(p)
	if c.nonBlocking && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
