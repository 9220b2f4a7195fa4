// Package transport provides byte streams a session can run over.
//
// Both adapters start in blocking mode for the handshake and can be
// switched to non-blocking polling, where a Read with nothing available
// returns (0, nil).
//
// - Conn wraps a net.Conn (plain TCP or TLS) and emulates non-blocking
//   reads with a short read deadline.
// - FD drives a raw socket descriptor with golang.org/x/sys/unix.
package transport
