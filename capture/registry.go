package capture

import (
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"
)

// Factory opens a Device from a detected serial port's details.
type Factory func(port *enumerator.PortDetails) (Device, error)

// Info is one registered serial-transport capture adapter.
type Info struct {
	VendorID  uint16
	ProductID uint16
	Factory   Factory
}

var registered []Info

// Register adds a serial-transport capture adapter to the set Probe tries.
func Register(vendorID, productID uint16, factory Factory) {
	registered = append(registered, Info{VendorID: vendorID, ProductID: productID, Factory: factory})
}

// Probe walks the system's serial ports and opens the first one matching a
// registered VID/PID pair.
func Probe() (Device, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("capture: failed to list serial ports: %w", err)
	}
	return probePorts(ports, registered)
}

// ListMatches reports every attached serial port matching a registered
// VID/PID pair, without opening any of them. Used by the "capture list"
// command to show what's available before committing to one.
func ListMatches() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("capture: failed to list serial ports: %w", err)
	}
	return listMatches(ports, registered), nil
}

func listMatches(ports []*enumerator.PortDetails, candidates []Info) []string {
	var out []string
	for _, info := range candidates {
		for _, port := range ports {
			portVID, err := strconv.ParseUint(port.VID, 16, 16)
			if err != nil {
				continue
			}
			portPID, err := strconv.ParseUint(port.PID, 16, 16)
			if err != nil {
				continue
			}
			if uint16(portVID) != info.VendorID || uint16(portPID) != info.ProductID {
				continue
			}
			out = append(out, fmt.Sprintf("%s (VID=%#04x PID=%#04x)", port.Name, info.VendorID, info.ProductID))
		}
	}
	return out
}

// probePorts is Probe's matching logic split out from port enumeration so
// it can be exercised against a synthetic port list in tests.
func probePorts(ports []*enumerator.PortDetails, candidates []Info) (Device, error) {
	for _, info := range candidates {
		for _, port := range ports {
			portVID, err := strconv.ParseUint(port.VID, 16, 16)
			if err != nil {
				continue
			}
			portPID, err := strconv.ParseUint(port.PID, 16, 16)
			if err != nil {
				continue
			}
			if uint16(portVID) != info.VendorID || uint16(portPID) != info.ProductID {
				continue
			}
			dev, err := info.Factory(port)
			if err != nil {
				continue
			}
			return dev, nil
		}
	}

	return nil, fmt.Errorf("capture: no supported capture device found among %d registered adapter(s)", len(candidates))
}
