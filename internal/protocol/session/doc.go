// Package session owns one client connection to a WAMP router over the
// raw-socket transport.
//
// Ownership boundary:
// - handshake negotiation and the effective max frame size
// - inbound frame reassembly across partial reads (Pump)
// - outbound framing of encoded messages (Send, Ping)
// - the per-session request id counter
//
// A Session is single-threaded: Pump and Send must not run concurrently.
package session
