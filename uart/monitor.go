package uart

import "math/bits"

type monitorKind int

const (
	monitorRx monitorKind = iota
	monitorTx
)

type monitorState int

const (
	stateIdle monitorState = iota
	stateStart
	stateData
	stateParity
	stateStop
)

// monitor is the asynchronous bit-sampling state machine for one direction
// (rx or tx) of a serial line. It advances a virtual per-bit clock (ts)
// forward across whatever real samples arrive, replaying however many bit
// boundaries have elapsed since the last update.
type monitor struct {
	kind monitorKind

	state monitorState
	ts    float64

	data   bool // line level held since the last update call
	lastFC bool

	bitDuration  float64
	stopDuration float64
	parity       Parity

	reg         byte
	shift       int
	parityError bool

	pending []TimestampedEvent
}

func newMonitor(kind monitorKind, cfg Config) *monitor {
	stop := cfg.StopBits
	if stop == 0 {
		stop = 1
	}
	bitDuration := 1 / cfg.Baud
	return &monitor{
		kind:         kind,
		state:        stateIdle,
		ts:           -0.1,
		data:         true,
		bitDuration:  bitDuration,
		stopDuration: bitDuration * stop,
		parity:       cfg.Parity,
	}
}

// update advances the monitor to ts given the current level of the data
// line and (if monitored) its paired flow-control line, returning any
// events produced.
func (m *monitor) update(ts float64, data, fc bool) []TimestampedEvent {
	m.pending = m.pending[:0]

	if m.lastFC != fc {
		m.lastFC = fc
		m.pending = append(m.pending, TimestampedEvent{Timestamp: ts, Event: m.fcEvent(fc)})
	}

	for m.ts < ts {
		if !m.step(ts, data) {
			break
		}
	}

	m.data = data
	return m.pending
}

// step attempts one state transition. It returns false when the next
// transition has not yet fully elapsed (ts has not caught up).
func (m *monitor) step(ts float64, incoming bool) bool {
	switch m.state {
	case stateIdle:
		if !incoming {
			m.ts = ts
			m.state = stateStart
		} else {
			m.ts = ts
		}
		return true

	case stateStart:
		if m.ts+m.bitDuration*1.5 >= ts {
			return false
		}
		m.ts += m.bitDuration * 1.5
		if m.data {
			m.reg = 0x80
		} else {
			m.reg = 0
		}
		m.shift = 1
		m.state = stateData
		return true

	case stateData:
		if m.ts+m.bitDuration >= ts {
			return false
		}
		m.shift++
		m.reg >>= 1
		if m.data {
			m.reg |= 0x80
		}
		m.ts += m.bitDuration
		if m.shift == 8 {
			if m.parity != ParityNone {
				m.state = stateParity
			} else {
				m.state = stateStop
			}
		}
		return true

	case stateParity:
		if m.ts+m.bitDuration >= ts {
			return false
		}
		m.parityError = !m.checkParity(m.data)
		if m.parityError {
			m.pending = append(m.pending, TimestampedEvent{Timestamp: m.ts, Event: m.errEvent(ErrorKindParity)})
		}
		m.ts += m.bitDuration
		m.state = stateStop
		return true

	case stateStop:
		if m.ts+m.stopDuration >= ts {
			return false
		}
		if !m.data {
			m.pending = append(m.pending, TimestampedEvent{Timestamp: m.ts, Event: m.errEvent(ErrorKindFraming)})
		} else if !m.parityError {
			m.pending = append(m.pending, TimestampedEvent{Timestamp: m.ts, Event: m.dataEvent(m.reg)})
		}
		m.parityError = false
		m.ts += m.stopDuration
		m.state = stateIdle
		return true
	}
	return false
}

// checkParity reports whether the sampled parity bit matches what m.reg
// requires under the configured scheme.
func (m *monitor) checkParity(bit bool) bool {
	ones := bits.OnesCount8(m.reg)
	switch m.parity {
	case ParityEven:
		return bit == (ones%2 == 1)
	case ParityOdd:
		return bit == (ones%2 == 0)
	case ParitySet:
		return bit
	case ParityClear:
		return !bit
	default:
		return true
	}
}

// finalize flushes any mid-byte state at end of stream, matching the
// original parser's framing-error-on-truncation behavior.
func (m *monitor) finalize() *TimestampedEvent {
	var ev *TimestampedEvent
	switch m.state {
	case stateIdle:
		ev = nil
	case stateStop:
		e := TimestampedEvent{Timestamp: m.ts, Event: m.dataEvent(m.reg)}
		ev = &e
	default:
		e := TimestampedEvent{Timestamp: m.ts, Event: m.errEvent(ErrorKindFraming)}
		ev = &e
	}
	m.state = stateIdle
	return ev
}

func (m *monitor) dataEvent(b byte) Event {
	if m.kind == monitorRx {
		return Rx{Byte: b}
	}
	return Tx{Byte: b}
}

func (m *monitor) errEvent(kind ErrorKind) Event {
	if m.kind == monitorRx {
		return RxError{Kind: kind}
	}
	return TxError{Kind: kind}
}

func (m *monitor) fcEvent(active bool) Event {
	if m.kind == monitorRx {
		return Rts{Active: active}
	}
	return Cts{Active: active}
}
