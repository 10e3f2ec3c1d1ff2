// Package spi turns a raw channel-sample stream into chip-select edges and
// 8-bit MOSI/MISO words.
package spi

import "fmt"

// Level is the logical level that asserts chip-select.
type Level bool

const (
	ActiveLow  Level = false
	ActiveHigh Level = true
)

// ClockEdge identifies which transition of the clock signal carries data.
type ClockEdge bool

const (
	FirstEdge  ClockEdge = false
	SecondEdge ClockEdge = true
)

// ClockPolarity is the idle level of the clock signal.
type ClockPolarity bool

const (
	IdleLow  ClockPolarity = false
	IdleHigh ClockPolarity = true
)

// Mode is an SPI clock phase/polarity pair.
type Mode struct {
	Phase    ClockEdge
	Polarity ClockPolarity
}

// Mode0 through Mode3 are the four standard SPI modes.
func Mode0() Mode { return Mode{Phase: FirstEdge, Polarity: IdleLow} }
func Mode1() Mode { return Mode{Phase: SecondEdge, Polarity: IdleLow} }
func Mode2() Mode { return Mode{Phase: FirstEdge, Polarity: IdleHigh} }
func Mode3() Mode { return Mode{Phase: SecondEdge, Polarity: IdleHigh} }

func (m Mode) String() string {
	switch m {
	case Mode0():
		return "Mode0"
	case Mode1():
		return "Mode1"
	case Mode2():
		return "Mode2"
	case Mode3():
		return "Mode3"
	default:
		return fmt.Sprintf("Mode{phase:%v,polarity:%v}", m.Phase, m.Polarity)
	}
}

// samplingEdge reports whether a transition of clk to level newClk is the
// edge on which data should be latched, given the configured mode.
//
// This is the standard SPI relationship: mode 0 samples on the rising edge,
// mode 1 on the falling edge, mode 2 on the falling edge, mode 3 on the
// rising edge.
func (m Mode) samplingEdge(newClk bool) bool {
	return newClk != bool(m.Phase) != bool(m.Polarity)
}

// Event is a decoded SPI bus event: either ChipSelect or Data.
type Event interface {
	isSpiEvent()
	String() string
}

// ChipSelect reports a transition of the chip-select line to its new
// logical state (true means asserted/active).
type ChipSelect struct {
	Active bool
}

func (ChipSelect) isSpiEvent() {}
func (c ChipSelect) String() string {
	return fmt.Sprintf("ChipSelect(%t)", c.Active)
}

// Data is a completed 8-bit frame shifted in both directions.
type Data struct {
	Mosi byte
	Miso byte
}

func (Data) isSpiEvent() {}
func (d Data) String() string {
	return fmt.Sprintf("Data{mosi: %#02x, miso: %#02x}", d.Mosi, d.Miso)
}

// TimestampedEvent pairs an Event with the timestamp of the sample that
// produced it.
type TimestampedEvent struct {
	Timestamp float64
	Event     Event
}
