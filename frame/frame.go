// Package frame implements encoding and decoding of WIPC message frames.
package frame

import (
	"fmt"
	"io"
)

var (
	// Debug can be set to get message frames as they're encoded and decoded
	Debug io.Writer
)

// Magic is the 4-byte literal marking the start of every frame on the wire.
var Magic = []byte("WIPC")

const (
	// HeaderLen is the fixed wire header size: magic(4) + type(1) + length(4).
	HeaderLen = 9

	// MaxPayload is the largest payload the u32 length field can carry.
	MaxPayload = 1<<32 - 1
)

// Type is the one-byte message type carried in the frame header.
//
// Values 0x04-0xFF are reserved: they are structurally valid and both
// Decode and the demultiplexer deliver them untouched. Interpreting or
// rejecting them is the dispatcher's business.
type Type byte

const (
	Open  Type = 0x00
	Close Type = 0x01
	Call  Type = 0x02
	Data  Type = 0x03
)

func (t Type) String() string {
	switch t {
	case Open:
		return "OPEN"
	case Close:
		return "CLOSE"
	case Call:
		return "CALL"
	case Data:
		return "DATA"
	default:
		return fmt.Sprintf("TYPE(0x%02X)", byte(t))
	}
}
