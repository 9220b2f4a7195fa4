package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/fxamacker/cbor/v2"
)

// CBOR major types used for container heads.
const (
	cborMajorUint   byte = 0
	cborMajorNegint byte = 1
	cborMajorBytes  byte = 2
	cborMajorText   byte = 3
	cborMajorArray  byte = 4
	cborMajorMap    byte = 5
	cborMajorTag    byte = 6
	cborMajorSimple byte = 7

	cborIndefinite byte = 31
)

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error
	// Core Deterministic Encoding: smallest integer and float forms, no
	// indefinite-length items.
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("serializer: CBOR encoder initialization failed: " + err.Error())
	}
	// Text strings are raw bytes, as on the msgpack side.
	cborDecMode, err = cbor.DecOptions{UTF8: cbor.UTF8DecodeInvalid}.DecMode()
	if err != nil {
		panic("serializer: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborSerializer struct{}

// CBOR returns the CBOR serializer (handshake id 3).
func CBOR() Serializer {
	return cborSerializer{}
}

func (cborSerializer) ID() protocol.SerializationID { return protocol.SerializationCBOR }
func (cborSerializer) Name() string                 { return "cbor" }

func (cborSerializer) NewEncoder() Encoder {
	e := &cborEncoder{}
	e.Reset(io.Discard)
	return e
}

func (cborSerializer) NewDecoder() Decoder {
	return &cborDecoder{}
}

// cborEncoder writes scalars through the library encoder and container
// heads directly, since the library only streams whole values.
type cborEncoder struct {
	w    io.Writer
	enc  *cbor.Encoder
	head [9]byte
}

func (e *cborEncoder) Reset(w io.Writer) {
	e.w = w
	e.enc = cborEncMode.NewEncoder(w)
}

func (e *cborEncoder) EncodeInt(v int64) error     { return e.enc.Encode(v) }
func (e *cborEncoder) EncodeUint(v uint64) error   { return e.enc.Encode(v) }
func (e *cborEncoder) EncodeBool(v bool) error     { return e.enc.Encode(v) }
func (e *cborEncoder) EncodeFloat(v float64) error { return e.enc.Encode(v) }
func (e *cborEncoder) EncodeString(v string) error { return e.enc.Encode(v) }

func (e *cborEncoder) EncodeArrayHeader(n int) error {
	return e.writeHead(cborMajorArray, n)
}

func (e *cborEncoder) EncodeMapHeader(n int) error {
	return e.writeHead(cborMajorMap, n)
}

func (e *cborEncoder) writeHead(major byte, n int) error {
	if n < 0 {
		return fmt.Errorf("serializer: negative container length %d", n)
	}
	b := e.head[:0]
	v := uint64(n)
	switch {
	case v < 24:
		b = append(b, major<<5|byte(v))
	case v <= 0xFF:
		b = append(b, major<<5|24, byte(v))
	case v <= 0xFFFF:
		b = append(b, major<<5|25)
		b = binary.BigEndian.AppendUint16(b, uint16(v))
	case v <= 0xFFFFFFFF:
		b = append(b, major<<5|26)
		b = binary.BigEndian.AppendUint32(b, uint32(v))
	default:
		b = append(b, major<<5|27)
		b = binary.BigEndian.AppendUint64(b, v)
	}
	_, err := e.w.Write(b)
	return err
}

type cborDecoder struct {
	data []byte
}

func (d *cborDecoder) Reset(payload []byte) {
	d.data = payload
}

func (d *cborDecoder) Remaining() int {
	return len(d.data)
}

func (d *cborDecoder) PeekKind() (Kind, error) {
	if len(d.data) == 0 {
		return 0, fmt.Errorf("%w: cbor: no data", protocol.ErrTruncated)
	}
	initial := d.data[0]
	switch initial >> 5 {
	case cborMajorUint, cborMajorNegint:
		return KindInt, nil
	case cborMajorBytes:
		return KindBinary, nil
	case cborMajorText:
		return KindString, nil
	case cborMajorArray:
		return KindArray, nil
	case cborMajorMap:
		return KindMap, nil
	case cborMajorTag:
		return KindExt, nil
	}
	switch initial & 0x1F {
	case 20, 21:
		return KindBool, nil
	case 22, 23:
		return KindNil, nil
	case 25, 26, 27:
		return KindFloat, nil
	default:
		return 0, fmt.Errorf("%w: cbor simple value 0x%02x", protocol.ErrUnexpectedType, initial)
	}
}

func (d *cborDecoder) DecodeInt() (int64, error) {
	var v int64
	err := d.decodeScalar(KindInt, &v)
	return v, err
}

func (d *cborDecoder) DecodeBool() (bool, error) {
	var v bool
	err := d.decodeScalar(KindBool, &v)
	return v, err
}

func (d *cborDecoder) DecodeFloat() (float64, error) {
	var v float64
	err := d.decodeScalar(KindFloat, &v)
	return v, err
}

func (d *cborDecoder) DecodeString() (string, error) {
	var v string
	err := d.decodeScalar(KindString, &v)
	return v, err
}

func (d *cborDecoder) DecodeArrayHeader() (int, error) {
	if err := expectKind(d, KindArray); err != nil {
		return 0, err
	}
	return d.readHead()
}

func (d *cborDecoder) DecodeMapHeader() (int, error) {
	if err := expectKind(d, KindMap); err != nil {
		return 0, err
	}
	return d.readHead()
}

func (d *cborDecoder) SkipScalar() error {
	k, err := d.PeekKind()
	if err != nil {
		return err
	}
	if k == KindArray || k == KindMap {
		return fmt.Errorf("%w: skip scalar on %s", protocol.ErrUnexpectedType, k)
	}
	var raw cbor.RawMessage
	rest, err := cborDecMode.UnmarshalFirst(d.data, &raw)
	if err != nil {
		return cborErr(err)
	}
	d.data = rest
	return nil
}

func (d *cborDecoder) decodeScalar(want Kind, out any) error {
	if err := expectKind(d, want); err != nil {
		return err
	}
	rest, err := cborDecMode.UnmarshalFirst(d.data, out)
	if err != nil {
		return cborErr(err)
	}
	d.data = rest
	return nil
}

// readHead consumes a definite-length container head and returns its count.
func (d *cborDecoder) readHead() (int, error) {
	ai := d.data[0] & 0x1F
	var n uint64
	size := 1
	switch {
	case ai < 24:
		n = uint64(ai)
	case ai == 24:
		size = 2
	case ai == 25:
		size = 3
	case ai == 26:
		size = 5
	case ai == 27:
		size = 9
	case ai == cborIndefinite:
		return 0, fmt.Errorf("%w: cbor indefinite-length container", protocol.ErrUnexpectedType)
	default:
		return 0, fmt.Errorf("%w: cbor additional info %d", protocol.ErrDecode, ai)
	}
	if len(d.data) < size {
		return 0, fmt.Errorf("%w: cbor head needs %d bytes", protocol.ErrTruncated, size)
	}
	switch size {
	case 2:
		n = uint64(d.data[1])
	case 3:
		n = uint64(binary.BigEndian.Uint16(d.data[1:3]))
	case 5:
		n = uint64(binary.BigEndian.Uint32(d.data[1:5]))
	case 9:
		n = binary.BigEndian.Uint64(d.data[1:9])
	}
	if n > uint64(len(d.data)) {
		// every element takes at least one byte
		return 0, fmt.Errorf("%w: cbor container of %d items in %d bytes", protocol.ErrTruncated, n, len(d.data))
	}
	d.data = d.data[size:]
	return int(n), nil
}

func cborErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", protocol.ErrTruncated, err)
	}
	return fmt.Errorf("%w: cbor: %v", protocol.ErrDecode, err)
}
