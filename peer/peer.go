// Package peer layers typed dispatch and payload codecs over a raw
// frame channel.
package peer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"

	"github.com/JairusSW/wipc/channel"
	"github.com/JairusSW/wipc/codec"
	"github.com/JairusSW/wipc/frame"
)

// Peer wraps a channel with a TypeMux and a payload codec, giving the
// four conversation messages value-level send and receive.
//
// A peer makes no request/response promises: Call is fire-and-forget
// like every other send, and any correlation is the application's
// convention.
type Peer struct {
	*channel.Channel

	codec codec.Codec
	mux   *TypeMux
}

// New returns an unstarted peer over t encoding payloads with c.
// Register handlers, then Start.
func New(t io.ReadWriteCloser, c codec.Codec) *Peer {
	mux := NewTypeMux()
	return &Peer{
		Channel: channel.New(t, mux),
		codec:   c,
		mux:     mux,
	}
}

// Mux returns the peer's type mux.
func (p *Peer) Mux() *TypeMux {
	return p.mux
}

// Handle registers h for frames of type t.
func (p *Peer) Handle(t frame.Type, h FrameHandler) {
	p.mux.Handle(t, h)
}

// HandleFunc registers fn for frames of type t.
func (p *Peer) HandleFunc(t frame.Type, fn func(frame.Frame)) {
	p.mux.HandleFunc(t, fn)
}

// Unknown registers h for frames whose type has no registration.
func (p *Peer) Unknown(h FrameHandler) {
	p.mux.Unknown(h)
}

// Passthrough registers fn for runs of non-frame bytes.
func (p *Peer) Passthrough(fn func(p []byte)) {
	p.mux.Passthrough(fn)
}

// Open sends an empty OPEN frame announcing the conversation.
func (p *Peer) Open() error {
	return p.Send(frame.Open, nil)
}

// Shutdown sends an empty CLOSE frame ending the conversation. It does
// not close the transport.
func (p *Peer) Shutdown() error {
	return p.Send(frame.Close, nil)
}

// Call marshals v with the peer's codec and sends it as a CALL frame.
func (p *Peer) Call(v interface{}) error {
	return p.send(frame.Call, v)
}

// Data marshals v with the peer's codec and sends it as a DATA frame.
func (p *Peer) Data(v interface{}) error {
	return p.send(frame.Data, v)
}

func (p *Peer) send(t frame.Type, v interface{}) error {
	var buf bytes.Buffer
	if err := p.codec.Encoder(&buf).Encode(v); err != nil {
		return err
	}
	return p.Send(t, buf.Bytes())
}

// Decode unmarshals f's payload into v with the peer's codec.
func (p *Peer) Decode(f frame.Frame, v interface{}) error {
	return p.codec.Decoder(bytes.NewReader(f.Payload)).Decode(v)
}

// DecodeArgs converts loosely decoded payload values, such as the
// map[string]interface{} JSON produces for objects, into typed values.
func DecodeArgs(args, v interface{}) error {
	if err := mapstructure.Decode(args, v); err != nil {
		return fmt.Errorf("wipc: mapstructure: %s", err.Error())
	}
	return nil
}
