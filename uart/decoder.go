package uart

import (
	"io"
	"sort"

	"github.com/tracekit/tracekit/sample"
)

// Decoder turns a sample.Source into a stream of UART events on an
// independent rx and tx line pair. Like spi.Decoder, it is a pull
// iterator: Next pulls as many upstream samples as needed to produce the
// next event.
type Decoder struct {
	src sample.Source
	cfg Config

	rx *monitor
	tx *monitor

	pending   []TimestampedEvent
	finalized bool

	done        bool
	errSurfaced bool
	err         error
}

// NewDecoder returns a Decoder pulling samples from src per cfg.
func NewDecoder(src sample.Source, cfg Config) *Decoder {
	return &Decoder{
		src: src,
		cfg: cfg,
		rx:  newMonitor(monitorRx, cfg),
		tx:  newMonitor(monitorTx, cfg),
	}
}

// Next returns the next UART event, io.EOF at a clean end of stream (after
// the end-of-stream finalize flush has been applied), or the upstream error
// unchanged.
func (d *Decoder) Next() (TimestampedEvent, error) {
	for len(d.pending) == 0 {
		if d.done {
			if !d.errSurfaced {
				d.errSurfaced = true
				return TimestampedEvent{}, d.err
			}
			return TimestampedEvent{}, io.EOF
		}
		smp, err := d.src.Next()
		if err != nil {
			d.done = true
			d.err = err
			d.finalize()
			continue
		}
		d.update(smp)
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

func (d *Decoder) update(smp sample.Sample) {
	var rxFC, txFC bool
	if d.cfg.RTS != nil {
		rxFC = smp.Bit(*d.cfg.RTS)
	}
	if d.cfg.CTS != nil {
		txFC = smp.Bit(*d.cfg.CTS)
	}

	rxEvents := d.rx.update(smp.Timestamp, smp.Bit(d.cfg.RX), rxFC)
	txEvents := d.tx.update(smp.Timestamp, smp.Bit(d.cfg.TX), txFC)

	d.pending = append(d.pending, rxEvents...)
	d.pending = append(d.pending, txEvents...)
	d.sortPending()
}

// finalize flushes any mid-byte state once the upstream source ends. Tx is
// flushed before rx, matching the original's finalize order.
func (d *Decoder) finalize() {
	if d.finalized {
		return
	}
	d.finalized = true
	if ev := d.tx.finalize(); ev != nil {
		d.pending = append(d.pending, *ev)
	}
	if ev := d.rx.finalize(); ev != nil {
		d.pending = append(d.pending, *ev)
	}
	d.sortPending()
}

func (d *Decoder) sortPending() {
	sort.SliceStable(d.pending, func(i, j int) bool {
		return d.pending[i].Timestamp < d.pending[j].Timestamp
	})
}
