package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports that the buffer does not yet hold a whole
	// frame. It is the "need more bytes" signal, not a failure.
	ErrIncomplete = errors.New("wipc: incomplete frame")

	// ErrBadMagic reports that the buffer does not start with a frame.
	ErrBadMagic = errors.New("wipc: bad magic")

	// ErrPayloadTooLarge reports a payload the u32 length field cannot
	// represent.
	ErrPayloadTooLarge = errors.New("wipc: payload too large")
)

// Append appends the wire encoding of a frame to dst and returns the
// extended buffer. dst is returned unchanged with ErrPayloadTooLarge
// if the payload cannot fit the length field.
func Append(dst []byte, t Type, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > MaxPayload {
		return dst, ErrPayloadTooLarge
	}
	dst = append(dst, Magic...)
	dst = append(dst, byte(t))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...), nil
}

// Encode returns the wire encoding of a frame: exactly
// HeaderLen+len(payload) bytes.
func Encode(t Type, payload []byte) ([]byte, error) {
	return Append(make([]byte, 0, HeaderLen+len(payload)), t, payload)
}

// Decode extracts one frame from the front of b.
//
// It returns ErrIncomplete when b holds less than a whole frame (wait
// for more bytes), ErrBadMagic when b does not begin with Magic, and
// otherwise the frame along with the number of bytes it occupied on
// the wire. Bytes past the frame are never inspected.
//
// The returned Payload is a view into b, valid for as long as b is;
// callers that buffer b elsewhere must copy before reusing it. Decode
// itself is constant-time in the payload size.
func Decode(b []byte) (Frame, int, error) {
	if len(b) < HeaderLen {
		return Frame{}, 0, ErrIncomplete
	}
	if !bytes.Equal(b[:len(Magic)], Magic) {
		return Frame{}, 0, ErrBadMagic
	}
	length := binary.LittleEndian.Uint32(b[5:HeaderLen])
	total := int64(HeaderLen) + int64(length)
	if int64(len(b)) < total {
		return Frame{}, 0, ErrIncomplete
	}
	f := Frame{Type: Type(b[4]), Payload: b[HeaderLen:total:total]}
	if Debug != nil {
		fmt.Fprintln(Debug, ">>DEC", f)
	}
	return f, int(total), nil
}
