package frame

import "fmt"

// Frame is one complete protocol message: a type byte and a
// length-prefixed opaque payload.
//
// A Frame returned by Decode borrows Payload from the decoded buffer;
// see Decode for the lifetime contract.
type Frame struct {
	Type    Type
	Payload []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("{Frame %s Length:%d}", f.Type, len(f.Payload))
}

// Len returns the wire size of the frame: HeaderLen plus the payload.
func (f Frame) Len() int {
	return HeaderLen + len(f.Payload)
}
