package session

import (
	"github.com/danmuck/viaduct/internal/protocol/frame"
	"github.com/danmuck/viaduct/internal/protocol/serializer"
)

// Handler receives every complete data frame. dec is already reset over
// payload; payload is only valid until the handler returns.
type Handler interface {
	HandleMessage(payload []byte, dec serializer.Decoder) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(payload []byte, dec serializer.Decoder) error

func (f HandlerFunc) HandleMessage(payload []byte, dec serializer.Decoder) error {
	return f(payload, dec)
}

// Observer is notified of frame traffic. Calls happen on the Pump/Send
// goroutine and must not block.
type Observer interface {
	FrameReceived(kind frame.Kind, size int)
	FrameSent(kind frame.Kind, size int)
	MessageFailed(err error)
}

type nopObserver struct{}

func (nopObserver) FrameReceived(frame.Kind, int) {}
func (nopObserver) FrameSent(frame.Kind, int)     {}
func (nopObserver) MessageFailed(error)           {}
