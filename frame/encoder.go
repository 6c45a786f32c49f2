package frame

import (
	"fmt"
	"io"
	"sync"
)

// Encoder encodes frames given an io.Writer.
//
// Each frame goes out in a single Write call, and writes are serialized
// by an internal mutex, so one sender may run concurrently with a
// reader on the same transport.
type Encoder struct {
	w io.Writer
	sync.Mutex
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (enc *Encoder) Encode(f Frame) error {
	b, err := Encode(f.Type, f.Payload)
	if err != nil {
		return err
	}

	enc.Lock()
	defer enc.Unlock()

	if Debug != nil {
		fmt.Fprintln(Debug, "<<ENC", f)
	}

	_, err = enc.w.Write(b)
	return err
}

// Raw writes p to the transport verbatim, as passthrough bytes between
// frames. It shares the encoder mutex so a raw run can never land in
// the middle of a frame.
func (enc *Encoder) Raw(p []byte) error {
	enc.Lock()
	defer enc.Unlock()

	_, err := enc.w.Write(p)
	return err
}
