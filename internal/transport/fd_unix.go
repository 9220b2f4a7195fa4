//go:build linux || darwin

package transport

import (
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// writePollMillis bounds how long a non-blocking FD write waits for
// buffer space before reporting a zero-byte write.
const writePollMillis = 10

// FD is a connected stream socket driven with raw syscalls.
type FD struct {
	fd     int
	closed bool
}

// NewFD takes ownership of an already connected descriptor.
func NewFD(fd int) *FD {
	return &FD{fd: fd}
}

// DialFD resolves addr and connects a TCP socket in blocking mode.
func DialFD(ctx context.Context, addr string) (*FD, error) {
	var resolver net.Resolver
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ips, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	portNum, err := resolver.LookupPort(ctx, "tcp", port)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, ip := range ips {
		fd, err := connectFD(ip.IP, portNum)
		if err == nil {
			return NewFD(fd), nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("transport: no addresses for %q", host)
	}
	return nil, lastErr
}

func connectFD(ip net.IP, port int) (int, error) {
	var (
		domain int
		sa     unix.Sockaddr
	)
	if ip4 := ip.To4(); ip4 != nil {
		addr := &unix.SockaddrInet4{Port: port}
		copy(addr.Addr[:], ip4)
		domain, sa = unix.AF_INET, addr
	} else {
		addr := &unix.SockaddrInet6{Port: port}
		copy(addr.Addr[:], ip.To16())
		domain, sa = unix.AF_INET6, addr
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket create: %w", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.Connect(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("connect %s: %w", ip, err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return fd, nil
}

// Fd returns the underlying descriptor.
func (f *FD) Fd() int { return f.fd }

func (f *FD) SetNonBlocking(nonBlocking bool) error {
	return unix.SetNonblock(f.fd, nonBlocking)
}

func (f *FD) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(f.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, nil
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func (f *FD) Write(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	for {
		n, err := unix.Write(f.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			fds := []unix.PollFd{{Fd: int32(f.fd), Events: unix.POLLOUT}}
			if _, err := unix.Poll(fds, writePollMillis); err != nil && err != unix.EINTR {
				return 0, err
			}
			return 0, nil
		case err != nil:
			return 0, err
		}
		return n, nil
	}
}

func (f *FD) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return unix.Close(f.fd)
}
