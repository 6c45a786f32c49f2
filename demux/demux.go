// Package demux implements the incremental WIPC stream demultiplexer.
//
// A Demux consumes byte chunks of arbitrary size from a transport and
// separates them, in strict wire order, into decoded frames and runs of
// passthrough bytes that do not belong to any frame. Corruption or
// interleaved plain output is recovered from by scanning forward to the
// next magic occurrence; a magic split across two reads is never
// destroyed, because a trailing partial magic is retained in the buffer
// until the next chunk settles what it is.
package demux

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/JairusSW/wipc/frame"
)

// DefaultMaxFrameSize caps the wire size of a buffered frame when
// Demux.MaxFrameSize is left zero.
const DefaultMaxFrameSize = 32 * 1024 * 1024

// ErrOversizedFrame reports a frame header whose declared size exceeds
// the configured limit. The error is fatal to the stream: the demux
// drops its buffer and fails every later Write with the same error.
var ErrOversizedFrame = errors.New("wipc: frame exceeds maximum buffered size")

// Demux is the stateful parser for one direction of one stream. It is
// owned by a single feeder: one goroutine calls Write, and the handler
// callbacks run on that goroutine. It performs no I/O and never blocks.
type Demux struct {
	// MaxFrameSize bounds the wire size (header plus payload) of a
	// frame the demux is willing to buffer. Zero means
	// DefaultMaxFrameSize, negative means no limit. Set before the
	// first Write.
	MaxFrameSize int

	h   Handler
	buf []byte
	off int
	err error
}

// New returns a Demux delivering events to h. A nil h drops all events.
func New(h Handler) *Demux {
	if h == nil {
		h = Handlers{}
	}
	return &Demux{h: h}
}

// Write feeds one chunk of transport bytes to the demultiplexer,
// implementing io.Writer. Any chunk boundary is fine, from single bytes
// to whole multi-frame reads; an empty chunk is a no-op.
//
// Write appends the chunk to the accumulator and then extracts events
// until no complete frame or classifiable passthrough run remains.
// Byte slices passed to the handler are views into the accumulator and
// are valid only until the next Write call; retain a copy, not the
// slice.
//
// The only failure is ErrOversizedFrame; after it, the demux is dead.
func (d *Demux) Write(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Views handed out during the previous call die here.
	if d.off > 0 {
		n := copy(d.buf, d.buf[d.off:])
		d.buf = d.buf[:n]
		d.off = 0
	}
	d.buf = append(d.buf, p...)

	for {
		w := d.buf[d.off:]
		i := bytes.Index(w, frame.Magic)
		if i < 0 {
			// No frame start anywhere. Flush everything as
			// passthrough except a trailing partial magic, which
			// the next chunk may complete.
			keep := magicTail(w)
			if cut := len(w) - keep; cut > 0 {
				d.h.HandlePassthrough(w[:cut])
				d.off += cut
			}
			return len(p), nil
		}
		if i > 0 {
			// Resync: everything before the magic is passthrough.
			d.h.HandlePassthrough(w[:i])
			d.off += i
			w = w[i:]
		}

		// The limit applies to the declared size as soon as the header
		// is readable, whether or not the payload has arrived, so the
		// outcome does not depend on chunk boundaries.
		if len(w) >= frame.HeaderLen {
			need := int64(frame.HeaderLen) + int64(binary.LittleEndian.Uint32(w[5:frame.HeaderLen]))
			if need > d.limit() {
				d.err = ErrOversizedFrame
				d.buf, d.off = nil, 0
				return len(p), d.err
			}
		}

		f, n, err := frame.Decode(w)
		if err != nil {
			// w starts with the magic, so this is ErrIncomplete: the
			// header or payload is still arriving.
			return len(p), nil
		}

		// Exactly HeaderLen+length bytes consumed; payload bytes are
		// never re-scanned for magic.
		d.h.HandleFrame(f)
		d.off += n
	}
}

// Buffered returns the number of bytes held back as an incomplete
// trailing frame or a potential magic prefix.
func (d *Demux) Buffered() int {
	return len(d.buf) - d.off
}

// Err returns the error that killed the demux, if any.
func (d *Demux) Err() error {
	return d.err
}

func (d *Demux) limit() int64 {
	switch {
	case d.MaxFrameSize > 0:
		return int64(d.MaxFrameSize)
	case d.MaxFrameSize < 0:
		return int64(^uint64(0) >> 1)
	}
	return DefaultMaxFrameSize
}

// magicTail reports the length of the longest non-empty strict prefix
// of the magic that ends w, 0 if none.
func magicTail(w []byte) int {
	for k := len(frame.Magic) - 1; k > 0; k-- {
		if bytes.HasSuffix(w, frame.Magic[:k]) {
			return k
		}
	}
	return 0
}
