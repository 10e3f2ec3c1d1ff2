package capture

import (
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// VendorID and ProductID identify a TraceKit USB-CDC logic-analyzer
// adapter: a device that streams 9-byte binary sample records (timestamp
// ticks + channel byte) over a virtual serial port at a fixed baud rate.
const (
	VendorID  = 0x1209 // pid.codes shared open-source VID
	ProductID = 0x7131
)

func init() {
	Register(VendorID, ProductID, NewSerialCapture)
}

// SerialCapture is a Device backed by a USB-CDC serial port.
type SerialCapture struct {
	port         serial.Port
	serialNumber string
}

// NewSerialCapture opens port at the fixed baud rate the adapter's
// firmware streams samples at.
func NewSerialCapture(port *enumerator.PortDetails) (Device, error) {
	p, err := serial.Open(port.Name, &serial.Mode{BaudRate: 3_000_000})
	if err != nil {
		return nil, fmt.Errorf("capture: failed to open serial port %s: %w", port.Name, err)
	}
	return &SerialCapture{port: p, serialNumber: port.SerialNumber}, nil
}

func (s *SerialCapture) Read(p []byte) (int, error) { return s.port.Read(p) }
func (s *SerialCapture) Close() error                { return s.port.Close() }

func (s *SerialCapture) Describe() string {
	if s.serialNumber == "" {
		return fmt.Sprintf("TraceKit serial capture (VID=%#04x PID=%#04x)", VendorID, ProductID)
	}
	return fmt.Sprintf("TraceKit serial capture, serial %s", s.serialNumber)
}
