package spi

import (
	"github.com/tracekit/tracekit/sample"
)

// Config selects which channels carry the SPI signals and how to interpret
// them. It is captured once at Decoder construction and never changes.
type Config struct {
	CS   int
	MISO int
	MOSI int
	CLK  int

	CSActive Level
	Mode     Mode
}

// Decoder turns a sample.Source into a stream of SPI bus events. It is
// itself a pull iterator: Next pulls as many upstream samples as needed to
// produce (or rule out) the next event.
type Decoder struct {
	src sample.Source
	cfg Config

	prevCS  bool
	prevClk bool

	shiftMosi byte
	shiftMiso byte
	bitCount  int

	pending []TimestampedEvent
}

// NewDecoder returns a Decoder pulling samples from src per cfg.
func NewDecoder(src sample.Source, cfg Config) *Decoder {
	return &Decoder{src: src, cfg: cfg}
}

// Next returns the next SPI event, io.EOF at a clean end of stream, or the
// upstream error unchanged.
func (d *Decoder) Next() (TimestampedEvent, error) {
	for len(d.pending) == 0 {
		smp, err := d.src.Next()
		if err != nil {
			return TimestampedEvent{}, err
		}
		d.update(smp)
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

func (d *Decoder) update(smp sample.Sample) {
	cs := smp.Bit(d.cfg.CS) == bool(d.cfg.CSActive)
	clk := smp.Bit(d.cfg.CLK)

	if cs != d.prevCS {
		d.prevCS = cs
		d.emit(smp.Timestamp, ChipSelect{Active: cs})
		if cs {
			d.bitCount = 0
		}
	}

	if clk == d.prevClk {
		return
	}
	d.prevClk = clk

	if !cs {
		return
	}
	if !d.cfg.Mode.samplingEdge(clk) {
		return
	}

	d.shiftMosi = (d.shiftMosi << 1) | boolBit(smp.Bit(d.cfg.MOSI))
	d.shiftMiso = (d.shiftMiso << 1) | boolBit(smp.Bit(d.cfg.MISO))
	d.bitCount++
	if d.bitCount == 8 {
		d.bitCount = 0
		d.emit(smp.Timestamp, Data{Mosi: d.shiftMosi, Miso: d.shiftMiso})
	}
}

func (d *Decoder) emit(ts float64, ev Event) {
	d.pending = append(d.pending, TimestampedEvent{Timestamp: ts, Event: ev})
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}
