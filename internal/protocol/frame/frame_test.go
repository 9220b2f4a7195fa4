package frame

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/testutil/testlog"
)

func TestLenBytesRoundTripFullRange(t *testing.T) {
	testlog.Start(t)
	var buf [3]byte
	for n := uint32(0); n <= MaxLength; n++ {
		LenToBytes(n, buf[:])
		if got := BytesToLen(buf[:]); got != n {
			t.Fatalf("round trip n=%d got=%d", n, got)
		}
	}
}

func TestLenToBytesBoundaries(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		n    uint32
		want [3]byte
	}{
		{0, [3]byte{0, 0, 0}},
		{3, [3]byte{0, 0, 3}},
		{1 << 8, [3]byte{0, 1, 0}},
		{3 << 8, [3]byte{0, 3, 0}},
		{1 << 16, [3]byte{1, 0, 0}},
		{3 << 16, [3]byte{3, 0, 0}},
		{MaxLength, [3]byte{0xFF, 0xFF, 0xFF}},
	}
	for _, tc := range cases {
		buf := [3]byte{5, 5, 5}
		LenToBytes(tc.n, buf[:])
		if buf != tc.want {
			t.Fatalf("len=%d got=%v want=%v", tc.n, buf, tc.want)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := Header{Kind: KindPing, Length: 70000}
	b, err := EncodeHeader(in)
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if b != [4]byte{1, 0x01, 0x11, 0x70} {
		t.Fatalf("unexpected header bytes: %v", b)
	}
	out, err := DecodeHeader(b[:])
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if out != in {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
}

func TestDecodeHeaderUnknownKind(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeHeader([]byte{7, 0, 0, 1})
	if !errors.Is(err, protocol.ErrUnknownFrameKind) {
		t.Fatalf("expected ErrUnknownFrameKind, got %v", err)
	}
}

func TestDecodeHeaderShort(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeHeader([]byte{0, 0})
	if !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestPutHeaderRejectsOversizedLength(t *testing.T) {
	testlog.Start(t)
	var buf [HeaderLen]byte
	err := PutHeader(buf[:], Header{Kind: KindData, Length: MaxLength + 1})
	if !errors.Is(err, protocol.ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestMaxFrameSize(t *testing.T) {
	testlog.Start(t)
	if got := MaxFrameSize(0); got != 512 {
		t.Fatalf("exp=0 got=%d", got)
	}
	if got := MaxFrameSize(5); got != 16384 {
		t.Fatalf("exp=5 got=%d", got)
	}
	if got := MaxFrameSize(15); got != MaxLength {
		t.Fatalf("exp=15 got=%d", got)
	}
}

func TestHandshakeEncode(t *testing.T) {
	testlog.Start(t)
	b, err := EncodeHandshake(Handshake{LengthExp: 0xF, Serialization: protocol.SerializationMsgPack})
	if err != nil {
		t.Fatalf("encode handshake: %v", err)
	}
	if b != [4]byte{0x7F, 0xF2, 0, 0} {
		t.Fatalf("unexpected handshake bytes: %v", b)
	}
}

func TestHandshakeEncodeRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	if _, err := EncodeHandshake(Handshake{LengthExp: 16, Serialization: protocol.SerializationMsgPack}); !errors.Is(err, protocol.ErrInvalidLengthExp) {
		t.Fatalf("expected ErrInvalidLengthExp, got %v", err)
	}
	if _, err := EncodeHandshake(Handshake{LengthExp: 1}); !errors.Is(err, protocol.ErrUnsupportedSerializer) {
		t.Fatalf("expected ErrUnsupportedSerializer, got %v", err)
	}
}

func TestDecodeHandshake(t *testing.T) {
	testlog.Start(t)
	h, err := DecodeHandshake([]byte{0x7F, 0x93, 0, 0})
	if err != nil {
		t.Fatalf("decode handshake: %v", err)
	}
	if h.LengthExp != 9 || h.Serialization != protocol.SerializationCBOR {
		t.Fatalf("unexpected handshake: %+v", h)
	}
}

func TestDecodeHandshakeBadMagic(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeHandshake([]byte{0x7E, 0xF2, 0, 0})
	if !errors.Is(err, protocol.ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestDecodeHandshakeRouterError(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeHandshake([]byte{0x7F, byte(RejectMaxConnections) << 4, 0, 0})
	if !errors.Is(err, protocol.ErrHandshakeRejected) {
		t.Fatalf("expected ErrHandshakeRejected, got %v", err)
	}
	if !errors.Is(err, protocol.ErrSerializationMismatch) {
		t.Fatalf("expected router error reply to count as ErrSerializationMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), RejectMaxConnections.String()) {
		t.Fatalf("expected reject code in %q", err.Error())
	}
}
