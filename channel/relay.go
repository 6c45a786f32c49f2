package channel

import (
	"context"
	"io"
	"sync"

	"github.com/JairusSW/wipc/demux"
	"github.com/JairusSW/wipc/frame"
)

// Forward returns a handler that re-emits every receive event into
// dst: frames as frames, passthrough runs as raw bytes. Wire order is
// preserved because handlers run serially on the pump goroutine. A
// dst write failure does not stop the source; the first one is logged
// on dst's logger.
func Forward(dst *Channel) demux.Handler {
	var once sync.Once
	fail := func(err error) {
		once.Do(func() {
			dst.log.Error().Err(err).Str("channel", dst.id).Msg("relay write failed")
		})
	}
	return demux.Handlers{
		Frame: func(f frame.Frame) {
			if err := dst.SendFrame(f); err != nil {
				fail(err)
			}
		},
		Passthrough: func(p []byte) {
			if err := dst.WriteRaw(p); err != nil {
				fail(err)
			}
		},
	}
}

// Relay pumps src's stream into dst until src ends, re-framing rather
// than copying bytes so that a partial frame never reaches dst. It
// blocks and returns src's terminal error.
func Relay(ctx context.Context, dst *Channel, src io.ReadWriteCloser) error {
	c := New(src, Forward(dst))
	c.Start(ctx)
	return c.Wait()
}
