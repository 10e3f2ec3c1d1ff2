package uart

import (
	"errors"
	"io"
	"math/bits"
	"testing"

	"github.com/tracekit/tracekit/sample"
)

// fakeSource replays a fixed slice of samples.
type fakeSource struct {
	samples []sample.Sample
	i       int
}

func (f *fakeSource) Next() (sample.Sample, error) {
	if f.i >= len(f.samples) {
		return sample.Sample{}, io.EOF
	}
	s := f.samples[f.i]
	f.i++
	return s, nil
}

const chRX = 0

// segment is a constant signal level held for a number of bit durations.
type segment struct {
	level bool
	bits  float64
}

// buildWaveform renders segments into finely oversampled samples on chRX,
// fine enough that the virtual-clock bit sampler in monitor always detects
// each level transition.
func buildWaveform(bitDuration float64, oversamplePerBit int, segs []segment) []sample.Sample {
	dt := bitDuration / float64(oversamplePerBit)
	var smps []sample.Sample
	ts := 0.0
	for _, seg := range segs {
		steps := int(seg.bits * float64(oversamplePerBit))
		for i := 0; i < steps; i++ {
			var ch uint8
			if seg.level {
				ch = 1 << chRX
			}
			smps = append(smps, sample.Sample{Timestamp: ts, Channels: ch})
			ts += dt
		}
	}
	return smps
}

func byteSegments(b byte) []segment {
	segs := []segment{
		{level: true, bits: 2},  // idle
		{level: false, bits: 1}, // start
	}
	for i := 0; i < 8; i++ {
		bit := (b>>uint(i))&1 == 1
		segs = append(segs, segment{level: bit, bits: 1})
	}
	segs = append(segs, segment{level: true, bits: 3}) // stop + idle tail
	return segs
}

func collectRx(t *testing.T, dec *Decoder) []Event {
	t.Helper()
	var got []Event
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return got
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, ev.Event)
	}
}

func TestDecoder_RxByteRoundTrip8N1(t *testing.T) {
	segs := byteSegments(0x4B)
	smps := buildWaveform(1.0, 20, segs)
	src := &fakeSource{samples: smps}
	dec := NewDecoder(src, Config{RX: chRX, TX: chRX, Baud: 1.0, Parity: ParityNone, StopBits: 1})

	got := collectRx(t, dec)
	var rx []Rx
	for _, ev := range got {
		if r, ok := ev.(Rx); ok {
			rx = append(rx, r)
		}
	}
	if len(rx) != 1 {
		t.Fatalf("got %d Rx events (%v), want 1", len(rx), got)
	}
	if rx[0].Byte != 0x4B {
		t.Errorf("decoded byte = %#02x, want 0x4b", rx[0].Byte)
	}
}

func TestDecoder_FramingErrorOnLowStopBit(t *testing.T) {
	segs := []segment{
		{level: true, bits: 2},
		{level: false, bits: 1}, // start
	}
	for i := 0; i < 8; i++ {
		segs = append(segs, segment{level: true, bits: 1})
	}
	// Stop bit sampled low instead of high: framing violation.
	segs = append(segs, segment{level: false, bits: 1})
	segs = append(segs, segment{level: true, bits: 3})

	smps := buildWaveform(1.0, 20, segs)
	src := &fakeSource{samples: smps}
	dec := NewDecoder(src, Config{RX: chRX, TX: chRX, Baud: 1.0, Parity: ParityNone, StopBits: 1})

	got := collectRx(t, dec)
	var found bool
	for _, ev := range got {
		if e, ok := ev.(RxError); ok && e.Kind == ErrorKindFraming {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %v, want an RxError{Kind: Framing}", got)
	}
}

func expectedParityBit(b byte, p Parity) bool {
	ones := bits.OnesCount8(b)
	switch p {
	case ParityEven:
		return ones%2 == 1
	case ParityOdd:
		return ones%2 == 0
	case ParitySet:
		return true
	case ParityClear:
		return false
	}
	return false
}

func TestDecoder_ParityMismatch(t *testing.T) {
	b := byte(0x55) // 4 ones: even parity bit should be 0
	segs := []segment{
		{level: true, bits: 2},
		{level: false, bits: 1},
	}
	for i := 0; i < 8; i++ {
		bit := (b>>uint(i))&1 == 1
		segs = append(segs, segment{level: bit, bits: 1})
	}
	correctParity := expectedParityBit(b, ParityEven)
	segs = append(segs, segment{level: !correctParity, bits: 1}) // flipped: forces mismatch
	segs = append(segs, segment{level: true, bits: 3})

	smps := buildWaveform(1.0, 20, segs)
	src := &fakeSource{samples: smps}
	dec := NewDecoder(src, Config{RX: chRX, TX: chRX, Baud: 1.0, Parity: ParityEven, StopBits: 1})

	got := collectRx(t, dec)
	var foundParityErr, foundData bool
	for _, ev := range got {
		if e, ok := ev.(RxError); ok && e.Kind == ErrorKindParity {
			foundParityErr = true
		}
		if _, ok := ev.(Rx); ok {
			foundData = true
		}
	}
	if !foundParityErr {
		t.Fatalf("got %v, want an RxError{Kind: Parity}", got)
	}
	if foundData {
		t.Errorf("got %v, a parity-mismatched byte must not also surface as Rx", got)
	}
}

func TestDecoder_FinalizeFlushesMidByteState(t *testing.T) {
	// Truncate right after the start bit and 4 data bits: no stop bit ever
	// arrives, so finalize (triggered by upstream io.EOF) must report
	// framing, not silently drop the partial byte.
	segs := []segment{
		{level: true, bits: 2},
		{level: false, bits: 1},
		{level: true, bits: 1},
		{level: false, bits: 1},
		{level: true, bits: 1},
		{level: false, bits: 1},
	}
	smps := buildWaveform(1.0, 20, segs)
	src := &fakeSource{samples: smps}
	dec := NewDecoder(src, Config{RX: chRX, TX: chRX, Baud: 1.0, Parity: ParityNone, StopBits: 1})

	got := collectRx(t, dec)
	var found bool
	for _, ev := range got {
		if e, ok := ev.(RxError); ok && e.Kind == ErrorKindFraming {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %v, want a framing RxError from Finalize", got)
	}
}
