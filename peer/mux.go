package peer

import (
	"sync"

	"github.com/JairusSW/wipc/frame"
)

// FrameHandler consumes one decoded frame. The payload is a view into
// the feeding demux and must be copied if it outlives the call.
type FrameHandler interface {
	ServeFrame(f frame.Frame)
}

// FrameHandlerFunc adapts a function to a FrameHandler.
type FrameHandlerFunc func(f frame.Frame)

func (fn FrameHandlerFunc) ServeFrame(f frame.Frame) {
	fn(f)
}

// TypeMux routes frames to handlers registered per message type and
// implements demux.Handler, so it plugs directly into a channel.
//
// The stream core delivers every structurally valid frame no matter
// its type byte; deciding what a reserved or unexpected type means
// happens here. Types with no registration go to the Unknown handler,
// which drops them unless one is installed.
type TypeMux struct {
	mu      sync.RWMutex
	types   map[frame.Type]FrameHandler
	unknown FrameHandler
	pass    func(p []byte)
}

func NewTypeMux() *TypeMux {
	return &TypeMux{types: make(map[frame.Type]FrameHandler)}
}

// Handle registers h for frames of type t, replacing any previous
// registration.
func (m *TypeMux) Handle(t frame.Type, h FrameHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[t] = h
}

// HandleFunc registers fn for frames of type t.
func (m *TypeMux) HandleFunc(t frame.Type, fn func(frame.Frame)) {
	m.Handle(t, FrameHandlerFunc(fn))
}

// Unknown registers h for frames whose type has no registration.
func (m *TypeMux) Unknown(h FrameHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unknown = h
}

// Passthrough registers fn for runs of non-frame bytes.
func (m *TypeMux) Passthrough(fn func(p []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pass = fn
}

func (m *TypeMux) HandleFrame(f frame.Frame) {
	m.mu.RLock()
	h, ok := m.types[f.Type]
	if !ok {
		h = m.unknown
	}
	m.mu.RUnlock()
	if h != nil {
		h.ServeFrame(f)
	}
}

func (m *TypeMux) HandlePassthrough(p []byte) {
	m.mu.RLock()
	fn := m.pass
	m.mu.RUnlock()
	if fn != nil {
		fn(p)
	}
}
