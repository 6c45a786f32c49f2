// Package channel binds the WIPC frame codec and demultiplexer to real
// transports: stdio, child processes, TCP, Unix sockets, and
// WebSockets.
//
// A Channel owns one io.ReadWriteCloser. Its receive path is a single
// pump goroutine that reads chunks and feeds them to a demux; its send
// path encodes frames directly onto the transport under a mutex. The
// two paths share no parser state, so sending never blocks on or
// corrupts receiving.
package channel

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/someonegg/gox/syncx"

	"github.com/JairusSW/wipc/demux"
	"github.com/JairusSW/wipc/frame"
)

const readBufSize = 32 * 1024

// Stats are cumulative traffic counters for one channel.
type Stats struct {
	// receive path
	FramesIn         int64
	BytesIn          int64
	PassthroughRuns  int64
	PassthroughBytes int64

	// send path
	FramesOut int64
	BytesOut  int64
}

// Channel is a frame conversation over one transport.
//
// Events decoded from the transport are delivered to the Handler given
// at construction, synchronously on the pump goroutine. Sends may come
// from any goroutine, including from inside a handler.
type Channel struct {
	t   io.ReadWriteCloser
	enc *frame.Encoder
	d   *demux.Demux

	id  string
	log zerolog.Logger

	err   error
	quitF context.CancelFunc
	stopD syncx.DoneChan

	stat Stats
}

// New returns an unstarted channel over t delivering receive events to
// h. Configure with the Set methods, then Start.
func New(t io.ReadWriteCloser, h demux.Handler) *Channel {
	c := &Channel{
		t:     t,
		enc:   frame.NewEncoder(t),
		id:    xid.New().String(),
		log:   zerolog.Nop(),
		stopD: syncx.NewDoneChan(),
	}
	if h == nil {
		h = demux.Handlers{}
	}
	c.d = demux.New(&counting{c: c, h: h})
	return c
}

// counting wraps the user handler to keep receive-side counters.
type counting struct {
	c *Channel
	h demux.Handler
}

func (w *counting) HandleFrame(f frame.Frame) {
	atomic.AddInt64(&w.c.stat.FramesIn, 1)
	w.h.HandleFrame(f)
}

func (w *counting) HandlePassthrough(p []byte) {
	atomic.AddInt64(&w.c.stat.PassthroughRuns, 1)
	atomic.AddInt64(&w.c.stat.PassthroughBytes, int64(len(p)))
	w.h.HandlePassthrough(p)
}

// ID returns the channel's instance id, a unique short string for logs
// and metrics.
func (c *Channel) ID() string {
	return c.id
}

// SetLogger directs lifecycle errors to l. The default discards them.
func (c *Channel) SetLogger(l zerolog.Logger) {
	c.log = l
}

// SetMaxFrameSize bounds the wire size of a buffered incoming frame.
// Must be set before Start. Zero keeps demux.DefaultMaxFrameSize.
func (c *Channel) SetMaxFrameSize(n int) {
	c.d.MaxFrameSize = n
}

// Start launches the receive pump. The pump stops on transport EOF, a
// read error, a poisoned receive stream, or ctx cancel; cancelling
// closes the transport to unblock the pending read.
func (c *Channel) Start(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	var ctx context.Context
	ctx, c.quitF = context.WithCancel(parent)
	go c.reading(ctx)
}

func (c *Channel) reading(ctx context.Context) {
	defer c.stopD.SetDone()

	go func() {
		select {
		case <-ctx.Done():
			c.t.Close()
		case <-c.stopD:
		}
	}()

	buf := make([]byte, readBufSize)
	for {
		n, err := c.t.Read(buf)
		if n > 0 {
			atomic.AddInt64(&c.stat.BytesIn, int64(n))
			if _, derr := c.d.Write(buf[:n]); derr != nil {
				c.err = derr
				c.log.Error().Err(derr).Str("channel", c.id).Msg("receive stream poisoned")
				c.t.Close()
				return
			}
		}
		if err != nil {
			if !closedErr(err) && ctx.Err() == nil {
				c.err = err
				c.log.Error().Err(err).Str("channel", c.id).Msg("transport read failed")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// closedErr reports whether a read failure means the transport ended
// rather than broke: EOF from the peer, or a deliberate local Close
// landing under the blocked read.
func closedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, fs.ErrClosed) ||
		errors.Is(err, net.ErrClosed)
}

// Stop requests the pump to stop; it stops asynchronously.
func (c *Channel) Stop() {
	if c.quitF != nil {
		c.quitF()
	}
}

// StopD returns a done channel signaled when the pump has stopped.
func (c *Channel) StopD() syncx.DoneChanR {
	return c.stopD.R()
}

// Stopped reports whether the pump has stopped.
func (c *Channel) Stopped() bool {
	return c.stopD.R().Done()
}

// Wait blocks until the pump stops and returns its terminal error.
// Clean EOF, Stop, and Close all report nil.
func (c *Channel) Wait() error {
	<-c.stopD
	return c.err
}

// Err returns the pump's terminal error. Valid after the channel has
// stopped.
func (c *Channel) Err() error {
	return c.err
}

// Send encodes and writes one frame. It is fire-and-forget: an error
// means the transport write failed, never that the receiver objected.
func (c *Channel) Send(t frame.Type, payload []byte) error {
	return c.SendFrame(frame.Frame{Type: t, Payload: payload})
}

// SendFrame encodes and writes f. Safe for concurrent use.
func (c *Channel) SendFrame(f frame.Frame) error {
	if err := c.enc.Encode(f); err != nil {
		return err
	}
	atomic.AddInt64(&c.stat.FramesOut, 1)
	atomic.AddInt64(&c.stat.BytesOut, int64(f.Len()))
	return nil
}

// WriteRaw writes p verbatim, outside any frame. The peer's demux will
// deliver it as passthrough. Serialized with SendFrame so raw bytes
// never split a frame.
func (c *Channel) WriteRaw(p []byte) error {
	if err := c.enc.Raw(p); err != nil {
		return err
	}
	atomic.AddInt64(&c.stat.BytesOut, int64(len(p)))
	return nil
}

// Close closes the transport. The pump stops on its own once its
// pending read fails; a failure caused by Close itself is a clean
// stop, not an error.
func (c *Channel) Close() error {
	return c.t.Close()
}

// Stats returns a snapshot of the traffic counters.
func (c *Channel) Stats() Stats {
	return Stats{
		FramesIn:         atomic.LoadInt64(&c.stat.FramesIn),
		BytesIn:          atomic.LoadInt64(&c.stat.BytesIn),
		PassthroughRuns:  atomic.LoadInt64(&c.stat.PassthroughRuns),
		PassthroughBytes: atomic.LoadInt64(&c.stat.PassthroughBytes),
		FramesOut:        atomic.LoadInt64(&c.stat.FramesOut),
		BytesOut:         atomic.LoadInt64(&c.stat.BytesOut),
	}
}
