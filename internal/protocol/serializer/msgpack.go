package serializer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

type msgpackSerializer struct{}

// MsgPack returns the MessagePack serializer (handshake id 2).
func MsgPack() Serializer {
	return msgpackSerializer{}
}

func (msgpackSerializer) ID() protocol.SerializationID { return protocol.SerializationMsgPack }
func (msgpackSerializer) Name() string                 { return "msgpack" }

func (msgpackSerializer) NewEncoder() Encoder {
	return &msgpackEncoder{enc: msgpack.NewEncoder(io.Discard)}
}

func (msgpackSerializer) NewDecoder() Decoder {
	d := &msgpackDecoder{}
	d.dec = msgpack.NewDecoder(&d.r)
	return d
}

type msgpackEncoder struct {
	enc *msgpack.Encoder
}

func (e *msgpackEncoder) Reset(w io.Writer)             { e.enc.Reset(w) }
func (e *msgpackEncoder) EncodeInt(v int64) error       { return e.enc.EncodeInt(v) }
func (e *msgpackEncoder) EncodeUint(v uint64) error     { return e.enc.EncodeUint(v) }
func (e *msgpackEncoder) EncodeBool(v bool) error       { return e.enc.EncodeBool(v) }
func (e *msgpackEncoder) EncodeFloat(v float64) error   { return e.enc.EncodeFloat64(v) }
func (e *msgpackEncoder) EncodeString(v string) error   { return e.enc.EncodeString(v) }
func (e *msgpackEncoder) EncodeArrayHeader(n int) error { return e.enc.EncodeArrayLen(n) }
func (e *msgpackEncoder) EncodeMapHeader(n int) error   { return e.enc.EncodeMapLen(n) }

// msgpackDecoder reads through a bytes.Reader, which the library uses
// directly as its io.ByteScanner, so Remaining stays exact.
type msgpackDecoder struct {
	r   bytes.Reader
	dec *msgpack.Decoder
}

func (d *msgpackDecoder) Reset(payload []byte) {
	d.r.Reset(payload)
	d.dec.Reset(&d.r)
}

func (d *msgpackDecoder) Remaining() int {
	return d.r.Len()
}

func (d *msgpackDecoder) PeekKind() (Kind, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return 0, msgpackErr(err)
	}
	switch {
	case msgpcode.IsFixedNum(c):
		return KindInt, nil
	case c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32, c == msgpcode.Uint64,
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		return KindInt, nil
	case c == msgpcode.Nil:
		return KindNil, nil
	case c == msgpcode.False, c == msgpcode.True:
		return KindBool, nil
	case c == msgpcode.Float, c == msgpcode.Double:
		return KindFloat, nil
	case msgpcode.IsString(c):
		return KindString, nil
	case msgpcode.IsBin(c):
		return KindBinary, nil
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		return KindArray, nil
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		return KindMap, nil
	case msgpcode.IsExt(c):
		return KindExt, nil
	default:
		return 0, fmt.Errorf("%w: msgpack code 0x%02x", protocol.ErrUnexpectedType, c)
	}
}

func (d *msgpackDecoder) DecodeInt() (int64, error) {
	if err := expectKind(d, KindInt); err != nil {
		return 0, err
	}
	v, err := d.dec.DecodeInt64()
	return v, msgpackErr(err)
}

func (d *msgpackDecoder) DecodeBool() (bool, error) {
	if err := expectKind(d, KindBool); err != nil {
		return false, err
	}
	v, err := d.dec.DecodeBool()
	return v, msgpackErr(err)
}

func (d *msgpackDecoder) DecodeFloat() (float64, error) {
	if err := expectKind(d, KindFloat); err != nil {
		return 0, err
	}
	v, err := d.dec.DecodeFloat64()
	return v, msgpackErr(err)
}

func (d *msgpackDecoder) DecodeString() (string, error) {
	if err := expectKind(d, KindString); err != nil {
		return "", err
	}
	v, err := d.dec.DecodeString()
	return v, msgpackErr(err)
}

func (d *msgpackDecoder) DecodeArrayHeader() (int, error) {
	if err := expectKind(d, KindArray); err != nil {
		return 0, err
	}
	n, err := d.dec.DecodeArrayLen()
	return n, msgpackErr(err)
}

func (d *msgpackDecoder) DecodeMapHeader() (int, error) {
	if err := expectKind(d, KindMap); err != nil {
		return 0, err
	}
	n, err := d.dec.DecodeMapLen()
	return n, msgpackErr(err)
}

func (d *msgpackDecoder) SkipScalar() error {
	k, err := d.PeekKind()
	if err != nil {
		return err
	}
	if k == KindArray || k == KindMap {
		return fmt.Errorf("%w: skip scalar on %s", protocol.ErrUnexpectedType, k)
	}
	return msgpackErr(d.dec.Skip())
}

func msgpackErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", protocol.ErrTruncated, err)
	}
	if errors.Is(err, protocol.ErrTruncated) || errors.Is(err, protocol.ErrUnexpectedType) {
		return err
	}
	return fmt.Errorf("%w: msgpack: %v", protocol.ErrDecode, err)
}
