package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/JairusSW/wipc/frame"
)

// DefaultMaxFrameSize caps the wire size of an incoming frame when
// FrameCodec.MaxFrameSize is left zero.
const DefaultMaxFrameSize = 32 * 1024 * 1024

// ErrFrameTooLarge reports an incoming frame header whose declared size
// exceeds the decoder's limit. The frame is not read.
var ErrFrameTooLarge = errors.New("wipc: frame exceeds maximum size")

// FrameCodec wraps a value codec so that each encoded value travels as
// the payload of exactly one WIPC frame.
//
// It is a convenience for callers that own a clean frame stream end to
// end. Decoding is strict: the reader must be positioned on a frame
// header, and corruption surfaces as frame.ErrBadMagic instead of being
// scanned past. Streams that interleave frames with plain bytes belong
// to the demux package.
type FrameCodec struct {
	Codec

	// Type stamps outgoing frames. Zero is sent as Data; control
	// frames such as Open and Close carry no encoded value and are
	// written with the frame package directly.
	Type frame.Type

	// MaxFrameSize bounds the wire size of an incoming frame. Zero
	// means DefaultMaxFrameSize, negative means no limit.
	MaxFrameSize int
}

func (c *FrameCodec) Encoder(w io.Writer) Encoder {
	t := c.Type
	if t == 0 {
		t = frame.Data
	}
	return &frameEncoder{w: w, c: c.Codec, t: t}
}

type frameEncoder struct {
	w io.Writer
	c Codec
	t frame.Type
}

func (e *frameEncoder) Encode(v interface{}) error {
	var buf bytes.Buffer
	if err := e.c.Encoder(&buf).Encode(v); err != nil {
		return err
	}
	b, err := frame.Encode(e.t, buf.Bytes())
	if err != nil {
		return err
	}
	_, err = e.w.Write(b)
	return err
}

func (c *FrameCodec) Decoder(r io.Reader) Decoder {
	return &frameDecoder{r: r, c: c.Codec, max: c.MaxFrameSize}
}

type frameDecoder struct {
	r   io.Reader
	c   Codec
	max int
}

func (d *frameDecoder) Decode(v interface{}) error {
	hdr := make([]byte, frame.HeaderLen)
	if _, err := io.ReadFull(d.r, hdr); err != nil {
		return err
	}
	if !bytes.Equal(hdr[:len(frame.Magic)], frame.Magic) {
		return frame.ErrBadMagic
	}
	size := int64(binary.LittleEndian.Uint32(hdr[5:]))
	if frame.HeaderLen+size > d.limit() {
		return ErrFrameTooLarge
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		// A frame cut off mid-payload is corruption, not a clean end.
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return d.c.Decoder(bytes.NewReader(payload)).Decode(v)
}

func (d *frameDecoder) limit() int64 {
	switch {
	case d.max > 0:
		return int64(d.max)
	case d.max < 0:
		return int64(^uint64(0) >> 1)
	}
	return DefaultMaxFrameSize
}
