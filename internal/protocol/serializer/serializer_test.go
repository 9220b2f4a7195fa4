package serializer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/testutil/testlog"
)

func allSerializers() []Serializer {
	return []Serializer{MsgPack(), CBOR()}
}

func TestPrimitivesRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, s := range allSerializers() {
		t.Run(s.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			enc := s.NewEncoder()
			enc.Reset(&buf)
			mustEncode(t, enc.EncodeArrayHeader(6))
			mustEncode(t, enc.EncodeInt(-42))
			mustEncode(t, enc.EncodeUint(1<<40))
			mustEncode(t, enc.EncodeBool(true))
			mustEncode(t, enc.EncodeFloat(2.5))
			mustEncode(t, enc.EncodeString("turnpike"))
			mustEncode(t, enc.EncodeMapHeader(0))

			dec := s.NewDecoder()
			dec.Reset(buf.Bytes())
			n, err := dec.DecodeArrayHeader()
			if err != nil || n != 6 {
				t.Fatalf("array header n=%d err=%v", n, err)
			}
			if v, err := dec.DecodeInt(); err != nil || v != -42 {
				t.Fatalf("int v=%d err=%v", v, err)
			}
			if v, err := dec.DecodeInt(); err != nil || v != 1<<40 {
				t.Fatalf("uint v=%d err=%v", v, err)
			}
			if v, err := dec.DecodeBool(); err != nil || !v {
				t.Fatalf("bool v=%v err=%v", v, err)
			}
			if v, err := dec.DecodeFloat(); err != nil || v != 2.5 {
				t.Fatalf("float v=%v err=%v", v, err)
			}
			if v, err := dec.DecodeString(); err != nil || v != "turnpike" {
				t.Fatalf("string v=%q err=%v", v, err)
			}
			if n, err := dec.DecodeMapHeader(); err != nil || n != 0 {
				t.Fatalf("map header n=%d err=%v", n, err)
			}
			if dec.Remaining() != 0 {
				t.Fatalf("expected payload fully consumed, %d bytes left", dec.Remaining())
			}
		})
	}
}

func TestPeekKind(t *testing.T) {
	testlog.Start(t)
	for _, s := range allSerializers() {
		t.Run(s.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			enc := s.NewEncoder()
			enc.Reset(&buf)
			mustEncode(t, enc.EncodeInt(7))
			mustEncode(t, enc.EncodeString("x"))
			mustEncode(t, enc.EncodeArrayHeader(1))
			mustEncode(t, enc.EncodeMapHeader(1))
			want := []Kind{KindInt, KindString, KindArray, KindMap}

			dec := s.NewDecoder()
			dec.Reset(buf.Bytes())
			for i, k := range want {
				got, err := dec.PeekKind()
				if err != nil {
					t.Fatalf("peek %d: %v", i, err)
				}
				if got != k {
					t.Fatalf("peek %d got=%s want=%s", i, got, k)
				}
				switch k {
				case KindArray:
					_, err = dec.DecodeArrayHeader()
				case KindMap:
					_, err = dec.DecodeMapHeader()
				default:
					err = dec.SkipScalar()
				}
				if err != nil {
					t.Fatalf("consume %d: %v", i, err)
				}
			}
		})
	}
}

func TestDecodeUnexpectedType(t *testing.T) {
	testlog.Start(t)
	for _, s := range allSerializers() {
		t.Run(s.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			enc := s.NewEncoder()
			enc.Reset(&buf)
			mustEncode(t, enc.EncodeString("not an int"))

			dec := s.NewDecoder()
			dec.Reset(buf.Bytes())
			if _, err := dec.DecodeInt(); !errors.Is(err, protocol.ErrUnexpectedType) {
				t.Fatalf("expected ErrUnexpectedType, got %v", err)
			}
			if err := dec.SkipScalar(); err != nil {
				t.Fatalf("failed type check must not consume: %v", err)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	testlog.Start(t)
	for _, s := range allSerializers() {
		t.Run(s.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			enc := s.NewEncoder()
			enc.Reset(&buf)
			mustEncode(t, enc.EncodeString("a string long enough to cut"))

			b := buf.Bytes()
			dec := s.NewDecoder()
			dec.Reset(b[:len(b)-3])
			if _, err := dec.DecodeString(); !errors.Is(err, protocol.ErrTruncated) {
				t.Fatalf("expected ErrTruncated, got %v", err)
			}

			dec.Reset(nil)
			if _, err := dec.PeekKind(); !errors.Is(err, protocol.ErrTruncated) {
				t.Fatalf("expected ErrTruncated on empty payload, got %v", err)
			}
		})
	}
}

func TestMsgPackCompactIntegers(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	enc := MsgPack().NewEncoder()
	enc.Reset(&buf)
	mustEncode(t, enc.EncodeInt(1))
	mustEncode(t, enc.EncodeArrayHeader(3))
	mustEncode(t, enc.EncodeMapHeader(0))
	if !bytes.Equal(buf.Bytes(), []byte{0x01, 0x93, 0x80}) {
		t.Fatalf("unexpected msgpack bytes: %x", buf.Bytes())
	}
}

func TestCBORContainerHeads(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	enc := CBOR().NewEncoder()
	enc.Reset(&buf)
	mustEncode(t, enc.EncodeArrayHeader(3))
	mustEncode(t, enc.EncodeMapHeader(300))
	if !bytes.Equal(buf.Bytes(), []byte{0x83, 0xB9, 0x01, 0x2C}) {
		t.Fatalf("unexpected cbor bytes: %x", buf.Bytes())
	}
}

func TestCBORIndefiniteContainerRejected(t *testing.T) {
	testlog.Start(t)
	dec := CBOR().NewDecoder()
	dec.Reset([]byte{0x9F, 0x01, 0xFF})
	if _, err := dec.DecodeArrayHeader(); !errors.Is(err, protocol.ErrUnexpectedType) {
		t.Fatalf("expected ErrUnexpectedType, got %v", err)
	}
}

func TestInvalidUTF8StringsDecode(t *testing.T) {
	testlog.Start(t)
	payloads := map[string][]byte{
		"msgpack": {0xA2, 0xFF, 0xFE},
		"cbor":    {0x62, 0xFF, 0xFE},
	}
	for _, s := range allSerializers() {
		t.Run(s.Name(), func(t *testing.T) {
			dec := s.NewDecoder()
			dec.Reset(payloads[s.Name()])
			v, err := dec.DecodeString()
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if v != "\xff\xfe" {
				t.Fatalf("expected raw bytes ff fe, got %x", v)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	testlog.Start(t)
	r := DefaultRegistry()
	s, err := r.Lookup(protocol.SerializationMsgPack)
	if err != nil || s.Name() != "msgpack" {
		t.Fatalf("lookup msgpack: %v %v", s, err)
	}
	if _, err := r.Lookup(protocol.SerializationJSON); !errors.Is(err, protocol.ErrUnsupportedSerializer) {
		t.Fatalf("expected ErrUnsupportedSerializer, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	testlog.Start(t)
	if id, err := ParseID(" MsgPack "); err != nil || id != protocol.SerializationMsgPack {
		t.Fatalf("parse msgpack: %v %v", id, err)
	}
	if id, err := ParseID("cbor"); err != nil || id != protocol.SerializationCBOR {
		t.Fatalf("parse cbor: %v %v", id, err)
	}
	if _, err := ParseID("xml"); !errors.Is(err, protocol.ErrUnsupportedSerializer) {
		t.Fatalf("expected ErrUnsupportedSerializer, got %v", err)
	}
}

func mustEncode(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
}
