// Package capture abstracts live logic-analyzer transports — a
// USB-CDC virtual serial port or a raw USB bulk endpoint — behind a single
// io.ReadCloser so they can feed sample.NewBinarySource the same way a
// captured file does.
package capture

import "io"

// Device is a live capture transport, already opened and streaming
// 9-byte binary sample records.
type Device interface {
	io.ReadCloser

	// Describe returns a short human-readable identification of the
	// connected device (serial number, bus address, firmware version),
	// for diagnostic output.
	Describe() string
}
