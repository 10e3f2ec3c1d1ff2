// Package uart decodes a raw channel-sample stream into asynchronous
// serial (RS-232 style) byte and flow-control events on independent
// transmit and receive lines.
package uart

import "fmt"

// Parity selects how the decoder checks the parity bit, if any.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
	ParitySet
	ParityClear
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	case ParitySet:
		return "set"
	case ParityClear:
		return "clear"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

// ErrorKind classifies a decode error raised on either line.
type ErrorKind int

const (
	ErrorKindFraming ErrorKind = iota
	ErrorKindParity
	ErrorKindFlowControl
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindFraming:
		return "framing"
	case ErrorKindParity:
		return "parity"
	case ErrorKindFlowControl:
		return "flow control"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Event is a decoded UART event: a received/transmitted byte, a
// flow-control line transition, or a decode error on one of the two lines.
type Event interface {
	isUartEvent()
	String() string
}

// Rx is one byte received on the rx line.
type Rx struct{ Byte byte }

func (Rx) isUartEvent()   {}
func (r Rx) String() string { return fmt.Sprintf("Rx(%#02x)", r.Byte) }

// Tx is one byte sent on the tx line.
type Tx struct{ Byte byte }

func (Tx) isUartEvent()   {}
func (t Tx) String() string { return fmt.Sprintf("Tx(%#02x)", t.Byte) }

// Rts reports a transition of the RTS line paired with the rx monitor.
type Rts struct{ Active bool }

func (Rts) isUartEvent()    {}
func (r Rts) String() string { return fmt.Sprintf("Rts(%t)", r.Active) }

// Cts reports a transition of the CTS line paired with the tx monitor.
type Cts struct{ Active bool }

func (Cts) isUartEvent()    {}
func (c Cts) String() string { return fmt.Sprintf("Cts(%t)", c.Active) }

// RxError is a decode error on the rx line.
type RxError struct{ Kind ErrorKind }

func (RxError) isUartEvent()    {}
func (e RxError) String() string { return fmt.Sprintf("RxError(%v)", e.Kind) }

// TxError is a decode error on the tx line.
type TxError struct{ Kind ErrorKind }

func (TxError) isUartEvent()    {}
func (e TxError) String() string { return fmt.Sprintf("TxError(%v)", e.Kind) }

// TimestampedEvent pairs an Event with the timestamp of the sample that
// produced it.
type TimestampedEvent struct {
	Timestamp float64
	Event     Event
}

// Config selects the channels and line parameters used to decode an
// asynchronous serial pair. RTS and CTS are optional: a nil pointer means
// that line is not monitored.
type Config struct {
	TX  int
	RX  int
	RTS *int
	CTS *int

	Baud     float64
	Parity   Parity
	StopBits float64
}
