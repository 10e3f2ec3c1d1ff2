package sample

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BinarySource reads the binary sample format: a repeating 9-byte record of
// a little-endian int64 tick count followed by a uint8 channel snapshot.
// Timestamp in seconds is ticks/freq.
type BinarySource struct {
	r    io.Reader
	freq float64
	done bool
}

// NewBinarySource returns a Source over the binary record format at r.
// A freqHz of 0 is rewritten to 1, giving a scale-free sample axis.
func NewBinarySource(r io.Reader, freqHz float64) *BinarySource {
	if freqHz == 0 {
		freqHz = 1
	}
	return &BinarySource{r: r, freq: freqHz}
}

func (b *BinarySource) Next() (Sample, error) {
	if b.done {
		return Sample{}, io.EOF
	}

	var buf [9]byte
	n, err := io.ReadFull(b.r, buf[:])
	switch {
	case err == io.EOF && n == 0:
		b.done = true
		return Sample{}, io.EOF
	case err == io.ErrUnexpectedEOF || (err == io.EOF && n > 0):
		b.done = true
		return Sample{}, fmt.Errorf("%w: truncated record after %d of 9 bytes", ErrMalformedInput, n)
	case err != nil:
		b.done = true
		return Sample{}, err
	}

	ticks := int64(binary.LittleEndian.Uint64(buf[0:8]))
	channels := buf[8]
	return Sample{
		Timestamp: float64(ticks) / b.freq,
		Channels:  channels,
	}, nil
}
