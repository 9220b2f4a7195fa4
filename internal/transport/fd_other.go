//go:build !(linux || darwin)

package transport

import "context"

// FD is unavailable on this platform.
type FD struct{}

func DialFD(context.Context, string) (*FD, error) { return nil, ErrFDUnsupported }

func (*FD) SetNonBlocking(bool) error { return ErrFDUnsupported }
func (*FD) Read([]byte) (int, error) { return 0, ErrFDUnsupported }
func (*FD) Write([]byte) (int, error) { return 0, ErrFDUnsupported }
func (*FD) Close() error { return nil }
