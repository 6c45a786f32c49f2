package demux

import (
	"math/rand"
	"testing"

	"github.com/JairusSW/wipc/frame"
)

// rec is one observed event, with bytes copied out of the accumulator.
type rec struct {
	isFrame bool
	typ     frame.Type
	data    string
}

type recorder struct {
	events []rec
}

func (r *recorder) HandleFrame(f frame.Frame) {
	r.events = append(r.events, rec{isFrame: true, typ: f.Type, data: string(f.Payload)})
}

func (r *recorder) HandlePassthrough(p []byte) {
	r.events = append(r.events, rec{data: string(p)})
}

// merged returns the events with adjacent passthrough runs coalesced,
// the canonical form for comparing different chunkings of one stream.
func (r *recorder) merged() []rec {
	var out []rec
	for _, e := range r.events {
		if !e.isFrame && len(out) > 0 && !out[len(out)-1].isFrame {
			out[len(out)-1].data += e.data
			continue
		}
		out = append(out, e)
	}
	return out
}

func sameEvents(a, b []rec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustEncode(t testing.TB, typ frame.Type, payload []byte) []byte {
	t.Helper()
	b, err := frame.Encode(typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSingleFrame(t *testing.T) {
	var r recorder
	d := New(&r)

	if _, err := d.Write(mustEncode(t, frame.Data, []byte("hello"))); err != nil {
		t.Fatal(err)
	}
	want := []rec{{isFrame: true, typ: frame.Data, data: "hello"}}
	if !sameEvents(r.merged(), want) {
		t.Fatalf("events: %+v", r.events)
	}
	if d.Buffered() != 0 {
		t.Fatal("buffered:", d.Buffered())
	}
}

func TestBackToBackFrames(t *testing.T) {
	var r recorder
	d := New(&r)

	var stream []byte
	stream = append(stream, mustEncode(t, frame.Open, nil)...)
	stream = append(stream, mustEncode(t, frame.Call, []byte("a"))...)
	stream = append(stream, mustEncode(t, frame.Data, []byte("bb"))...)
	if _, err := d.Write(stream); err != nil {
		t.Fatal(err)
	}

	want := []rec{
		{isFrame: true, typ: frame.Open},
		{isFrame: true, typ: frame.Call, data: "a"},
		{isFrame: true, typ: frame.Data, data: "bb"},
	}
	if !sameEvents(r.merged(), want) {
		t.Fatalf("events: %+v", r.events)
	}
}

func TestResyncAfterGarbage(t *testing.T) {
	var r recorder
	d := New(&r)

	stream := append([]byte("garbage"), mustEncode(t, frame.Data, []byte("x"))...)
	if _, err := d.Write(stream); err != nil {
		t.Fatal(err)
	}

	want := []rec{
		{data: "garbage"},
		{isFrame: true, typ: frame.Data, data: "x"},
	}
	if !sameEvents(r.merged(), want) {
		t.Fatalf("events: %+v", r.events)
	}
}

func TestSplitMagicAcrossChunks(t *testing.T) {
	var r recorder
	d := New(&r)

	wire := mustEncode(t, frame.Data, []byte("x"))
	if _, err := d.Write(wire[:3]); err != nil { // "WIP"
		t.Fatal(err)
	}
	if len(r.events) != 0 {
		t.Fatalf("premature events: %+v", r.events)
	}
	if d.Buffered() != 3 {
		t.Fatal("buffered:", d.Buffered())
	}
	if _, err := d.Write(wire[3:]); err != nil { // "C" + rest
		t.Fatal(err)
	}

	want := []rec{{isFrame: true, typ: frame.Data, data: "x"}}
	if !sameEvents(r.merged(), want) {
		t.Fatalf("events: %+v", r.events)
	}
}

func TestPartialMagicTailIsPlainBytes(t *testing.T) {
	var r recorder
	d := New(&r)

	// "WIP" is held back as a possible frame start...
	if _, err := d.Write([]byte("abcWIP")); err != nil {
		t.Fatal(err)
	}
	if !sameEvents(r.merged(), []rec{{data: "abc"}}) {
		t.Fatalf("events: %+v", r.events)
	}
	if d.Buffered() != 3 {
		t.Fatal("buffered:", d.Buffered())
	}
	// ...until the next chunk shows it was not one.
	if _, err := d.Write([]byte("Xdef")); err != nil {
		t.Fatal(err)
	}
	if !sameEvents(r.merged(), []rec{{data: "abcWIPXdef"}}) {
		t.Fatalf("events: %+v", r.events)
	}
	if d.Buffered() != 0 {
		t.Fatal("buffered:", d.Buffered())
	}
}

func TestIncompleteTailRetention(t *testing.T) {
	var r recorder
	d := New(&r)

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	wire := mustEncode(t, frame.Data, payload) // 109 bytes

	if _, err := d.Write(wire[:5]); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 || d.Buffered() != 5 {
		t.Fatalf("after header prefix: events %+v, buffered %d", r.events, d.Buffered())
	}
	if _, err := d.Write(wire[5:]); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 1 || !r.events[0].isFrame || len(r.events[0].data) != 100 {
		t.Fatalf("events: %+v", r.events)
	}
	if d.Buffered() != 0 {
		t.Fatal("buffered:", d.Buffered())
	}
}

func TestMagicInsidePayload(t *testing.T) {
	var r recorder
	d := New(&r)

	var stream []byte
	stream = append(stream, mustEncode(t, frame.Data, []byte("xxWIPCyy"))...)
	stream = append(stream, mustEncode(t, frame.Data, []byte("z"))...)
	if _, err := d.Write(stream); err != nil {
		t.Fatal(err)
	}

	want := []rec{
		{isFrame: true, typ: frame.Data, data: "xxWIPCyy"},
		{isFrame: true, typ: frame.Data, data: "z"},
	}
	if !sameEvents(r.merged(), want) {
		t.Fatalf("events: %+v", r.events)
	}
}

func TestEmptyChunkNoOp(t *testing.T) {
	var r recorder
	d := New(&r)

	if n, err := d.Write(nil); n != 0 || err != nil {
		t.Fatal("empty write:", n, err)
	}
	if n, err := d.Write([]byte{}); n != 0 || err != nil {
		t.Fatal("empty write:", n, err)
	}
	if len(r.events) != 0 || d.Buffered() != 0 {
		t.Fatal("state changed by empty write")
	}
}

func TestReservedTypeDelivered(t *testing.T) {
	var r recorder
	d := New(&r)

	if _, err := d.Write(mustEncode(t, frame.Type(0x9C), []byte("ok"))); err != nil {
		t.Fatal(err)
	}
	want := []rec{{isFrame: true, typ: frame.Type(0x9C), data: "ok"}}
	if !sameEvents(r.merged(), want) {
		t.Fatalf("events: %+v", r.events)
	}
}

func TestOversizedFrame(t *testing.T) {
	var r recorder
	d := New(&r)
	d.MaxFrameSize = 1024

	// magic + DATA + length 0xFFFFFFFF, nothing more forthcoming
	hostile := append(append([]byte{}, frame.Magic...), byte(frame.Data), 0xFF, 0xFF, 0xFF, 0xFF)
	if _, err := d.Write(hostile); err != ErrOversizedFrame {
		t.Fatal("expected oversize error, got", err)
	}
	if d.Err() != ErrOversizedFrame {
		t.Fatal("sticky error not recorded")
	}
	if d.Buffered() != 0 {
		t.Fatal("accumulator not released")
	}
	// poisoned for good
	if n, err := d.Write([]byte("more")); n != 0 || err != ErrOversizedFrame {
		t.Fatal("poisoned write:", n, err)
	}
	if len(r.events) != 0 {
		t.Fatalf("events: %+v", r.events)
	}
}

func TestOversizedFrameSplitHeader(t *testing.T) {
	var r recorder
	d := New(&r)
	d.MaxFrameSize = 1024

	if _, err := d.Write(append(append([]byte{}, frame.Magic...), byte(frame.Data))); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF}); err != ErrOversizedFrame {
		t.Fatal("expected oversize error, got", err)
	}
}

func TestFrameAtSizeLimit(t *testing.T) {
	var r recorder
	d := New(&r)
	d.MaxFrameSize = 64

	ok := mustEncode(t, frame.Data, make([]byte, 64-frame.HeaderLen))
	if _, err := d.Write(ok); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 1 {
		t.Fatalf("events: %+v", r.events)
	}

	d2 := New(&recorder{})
	d2.MaxFrameSize = 64
	over := mustEncode(t, frame.Data, make([]byte, 64-frame.HeaderLen+1))
	if _, err := d2.Write(over); err != ErrOversizedFrame {
		t.Fatal("expected oversize error, got", err)
	}
}

// buildMixedStream interleaves plain output with frames the way a child
// process writing logs around protocol traffic would.
func buildMixedStream(t testing.TB) ([]byte, []rec) {
	var stream []byte
	stream = append(stream, "boot log line\n"...)
	stream = append(stream, mustEncode(t, frame.Open, nil)...)
	stream = append(stream, mustEncode(t, frame.Call, []byte(`{"method":"sum"}`))...)
	stream = append(stream, "progress: 50%\n"...)
	stream = append(stream, mustEncode(t, frame.Data, []byte("xxWIPCyy"))...)
	stream = append(stream, "W marks half a magic"...)
	stream = append(stream, mustEncode(t, frame.Data, []byte("tail"))...)
	stream = append(stream, mustEncode(t, frame.Close, nil)...)
	stream = append(stream, "bye\n"...)

	want := []rec{
		{data: "boot log line\n"},
		{isFrame: true, typ: frame.Open},
		{isFrame: true, typ: frame.Call, data: `{"method":"sum"}`},
		{data: "progress: 50%\n"},
		{isFrame: true, typ: frame.Data, data: "xxWIPCyy"},
		{data: "W marks half a magic"},
		{isFrame: true, typ: frame.Data, data: "tail"},
		{isFrame: true, typ: frame.Close},
		{data: "bye\n"},
	}
	return stream, want
}

func feedInChunks(t testing.TB, stream []byte, next func(remaining int) int) []rec {
	var r recorder
	d := New(&r)
	for i := 0; i < len(stream); {
		n := next(len(stream) - i)
		if _, err := d.Write(stream[i : i+n]); err != nil {
			t.Fatal(err)
		}
		i += n
	}
	return r.merged()
}

func TestChunkingInvariance(t *testing.T) {
	stream, want := buildMixedStream(t)

	whole := feedInChunks(t, stream, func(rem int) int { return rem })
	if !sameEvents(whole, want) {
		t.Fatalf("whole feed: %+v", whole)
	}

	single := feedInChunks(t, stream, func(int) int { return 1 })
	if !sameEvents(single, want) {
		t.Fatalf("1-byte feed: %+v", single)
	}

	for _, size := range []int{2, 3, 5, 8, 13} {
		got := feedInChunks(t, stream, func(rem int) int {
			if size < rem {
				return size
			}
			return rem
		})
		if !sameEvents(got, want) {
			t.Fatalf("%d-byte feed: %+v", size, got)
		}
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 100; trial++ {
		got := feedInChunks(t, stream, func(rem int) int {
			n := 1 + rng.Intn(16)
			if n > rem {
				return rem
			}
			return n
		})
		if !sameEvents(got, want) {
			t.Fatalf("random feed trial %d: %+v", trial, got)
		}
	}
}

func TestNilHandlerDropsEvents(t *testing.T) {
	d := New(nil)
	stream := append([]byte("noise"), mustEncode(t, frame.Data, []byte("x"))...)
	if _, err := d.Write(stream); err != nil {
		t.Fatal(err)
	}
	if d.Buffered() != 0 {
		t.Fatal("buffered:", d.Buffered())
	}
}

func BenchmarkWriteWholeFrames(b *testing.B) {
	payload := make([]byte, 1024)
	wire, err := frame.Encode(frame.Data, payload)
	if err != nil {
		b.Fatal(err)
	}
	d := New(Handlers{})
	b.SetBytes(int64(len(wire)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Write(wire); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteSmallChunks(b *testing.B) {
	payload := make([]byte, 1024)
	wire, err := frame.Encode(frame.Data, payload)
	if err != nil {
		b.Fatal(err)
	}
	d := New(Handlers{})
	b.SetBytes(int64(len(wire)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for off := 0; off < len(wire); off += 64 {
			end := off + 64
			if end > len(wire) {
				end = len(wire)
			}
			if _, err := d.Write(wire[off:end]); err != nil {
				b.Fatal(err)
			}
		}
	}
}
