// Package interop provides the canonical echo service used to exercise
// WIPC implementations against each other.
package interop

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/JairusSW/wipc/frame"
	"github.com/JairusSW/wipc/peer"
)

// EchoService answers every conversation message in the simplest
// conforming way: OPEN is acknowledged with an OPEN, CALL and DATA come
// back as DATA carrying the same payload, and CLOSE marks the service
// done. It is what the bundled CLI speaks in serve mode and what check
// and bench run against.
type EchoService struct {
	// Log receives send failures. Defaults to a no-op logger.
	Log zerolog.Logger

	done chan struct{}
	once sync.Once
}

func NewEchoService() *EchoService {
	return &EchoService{
		Log:  zerolog.Nop(),
		done: make(chan struct{}),
	}
}

// Attach registers the service's handlers on p. Frames of reserved
// types keep the peer's default handling.
func (s *EchoService) Attach(p *peer.Peer) {
	p.HandleFunc(frame.Open, func(f frame.Frame) {
		s.reply(p, frame.Open, nil)
	})
	p.HandleFunc(frame.Call, func(f frame.Frame) {
		s.reply(p, frame.Data, f.Payload)
	})
	p.HandleFunc(frame.Data, func(f frame.Frame) {
		s.reply(p, frame.Data, f.Payload)
	})
	p.HandleFunc(frame.Close, func(f frame.Frame) {
		s.once.Do(func() { close(s.done) })
	})
}

func (s *EchoService) reply(p *peer.Peer, t frame.Type, payload []byte) {
	if err := p.Send(t, payload); err != nil {
		s.Log.Error().Err(err).Msg("echo send failed")
	}
}

// Done is signaled once a CLOSE frame has been received.
func (s *EchoService) Done() <-chan struct{} {
	return s.done
}
