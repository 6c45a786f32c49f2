package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/JairusSW/wipc/frame"
)

type testData struct {
	Map map[string]bool
	Arr []int
}

func testRoundTrip(t *testing.T, c Codec) {
	t.Helper()
	var buf bytes.Buffer

	if err := c.Encoder(&buf).Encode(testData{
		Map: map[string]bool{"true": true, "false": false},
		Arr: []int{1, 2, 3},
	}); err != nil {
		t.Fatal(err)
	}

	var data testData
	if err := c.Decoder(&buf).Decode(&data); err != nil {
		t.Fatal(err)
	}

	if data.Map["true"] != true || data.Arr[2] != 3 {
		t.Fatal("unexpected data:", data)
	}
}

func TestJSONCodec(t *testing.T) {
	testRoundTrip(t, JSONCodec{})
}

func TestCBORCodec(t *testing.T) {
	testRoundTrip(t, CBORCodec{})
}

func TestFrameCodec(t *testing.T) {
	testRoundTrip(t, &FrameCodec{Codec: JSONCodec{}})
	testRoundTrip(t, &FrameCodec{Codec: CBORCodec{}})
}

func TestFrameCodecWire(t *testing.T) {
	c := &FrameCodec{Codec: JSONCodec{}}
	var buf bytes.Buffer

	if err := c.Encoder(&buf).Encode("hi"); err != nil {
		t.Fatal(err)
	}

	f, n, err := frame.Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if n != buf.Len() {
		t.Fatal("frame does not cover the writes:", n, buf.Len())
	}
	if f.Type != frame.Data {
		t.Fatal("default type:", f.Type)
	}
	if string(f.Payload) != "\"hi\"\n" {
		t.Fatalf("payload: %q", f.Payload)
	}
}

func TestFrameCodecTypeStamp(t *testing.T) {
	c := &FrameCodec{Codec: JSONCodec{}, Type: frame.Call}
	var buf bytes.Buffer

	if err := c.Encoder(&buf).Encode("hi"); err != nil {
		t.Fatal(err)
	}
	f, _, err := frame.Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != frame.Call {
		t.Fatal("stamped type:", f.Type)
	}
}

func TestFrameCodecStream(t *testing.T) {
	c := &FrameCodec{Codec: JSONCodec{}}
	var buf bytes.Buffer

	enc := c.Encoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(i); err != nil {
			t.Fatal(err)
		}
	}

	dec := c.Decoder(&buf)
	for i := 0; i < 3; i++ {
		var got int
		if err := dec.Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got != i {
			t.Fatal("out of order:", got, i)
		}
	}
	var extra int
	if err := dec.Decode(&extra); err != io.EOF {
		t.Fatal("expected EOF, got", err)
	}
}

func TestFrameCodecBadMagic(t *testing.T) {
	c := &FrameCodec{Codec: JSONCodec{}}
	r := bytes.NewReader([]byte("WIPX\x03\x00\x00\x00\x00"))

	var v interface{}
	if err := c.Decoder(r).Decode(&v); err != frame.ErrBadMagic {
		t.Fatal("expected bad magic, got", err)
	}
}

func TestFrameCodecTruncated(t *testing.T) {
	c := &FrameCodec{Codec: JSONCodec{}}
	wire, err := frame.Encode(frame.Data, []byte(`"hi"`))
	if err != nil {
		t.Fatal(err)
	}

	var v interface{}
	if err := c.Decoder(bytes.NewReader(wire[:frame.HeaderLen+2])).Decode(&v); err != io.ErrUnexpectedEOF {
		t.Fatal("expected unexpected EOF, got", err)
	}
	if err := c.Decoder(bytes.NewReader(wire[:5])).Decode(&v); err != io.ErrUnexpectedEOF {
		t.Fatal("expected unexpected EOF, got", err)
	}
}

func TestFrameCodecTooLarge(t *testing.T) {
	c := &FrameCodec{Codec: JSONCodec{}, MaxFrameSize: 16}
	wire := append(append([]byte{}, frame.Magic...), byte(frame.Data), 0xFF, 0xFF, 0xFF, 0xFF)

	var v interface{}
	if err := c.Decoder(bytes.NewReader(wire)).Decode(&v); err != ErrFrameTooLarge {
		t.Fatal("expected size guard, got", err)
	}
}
