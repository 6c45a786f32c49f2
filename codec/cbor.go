package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// CBORCodec encodes values as CBOR, a compact binary alternative to
// JSON for payloads that carry raw bytes.
type CBORCodec struct{}

func (c CBORCodec) Encoder(w io.Writer) Encoder {
	return cbor.NewEncoder(w)
}

func (c CBORCodec) Decoder(r io.Reader) Decoder {
	return cbor.NewDecoder(r)
}
