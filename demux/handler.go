package demux

import "github.com/JairusSW/wipc/frame"

// Handler receives demultiplexed stream events in wire order.
//
// Both methods are called synchronously from the feeding goroutine and
// must not retain their argument slices past the call; the bytes live
// in the demux accumulator.
type Handler interface {
	HandleFrame(f frame.Frame)
	HandlePassthrough(p []byte)
}

// Handlers adapts plain functions to a Handler. A nil field drops that
// kind of event.
type Handlers struct {
	Frame       func(f frame.Frame)
	Passthrough func(p []byte)
}

func (h Handlers) HandleFrame(f frame.Frame) {
	if h.Frame != nil {
		h.Frame(f)
	}
}

func (h Handlers) HandlePassthrough(p []byte) {
	if h.Passthrough != nil {
		h.Passthrough(p)
	}
}
