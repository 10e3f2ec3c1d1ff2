package capture

import (
	"fmt"

	"github.com/google/gousb"
)

// USBVendorID and USBProductID identify a TraceKit bulk-transfer logic
// analyzer adapter: a device with no serial-port personality, streaming
// 9-byte binary sample records over a bulk IN endpoint.
const (
	USBVendorID  = 0x1209
	USBProductID = 0x7132
)

const usbInEndpoint = 0x81

// USBCapture is a Device backed by a raw USB bulk IN endpoint.
type USBCapture struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	done func()
	ep   *gousb.InEndpoint
}

// OpenUSBCapture opens the first attached TraceKit bulk-transfer adapter.
func OpenUSBCapture() (*USBCapture, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(USBVendorID, USBProductID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("capture: failed to open USB device %#04x:%#04x: %w", USBVendorID, USBProductID, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("capture: no USB device %#04x:%#04x attached", USBVendorID, USBProductID)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("capture: failed to detach kernel driver: %w", err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("capture: failed to claim default interface: %w", err)
	}

	ep, err := intf.InEndpoint(usbInEndpoint)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("capture: failed to open IN endpoint %#02x: %w", usbInEndpoint, err)
	}

	return &USBCapture{ctx: ctx, dev: dev, done: done, ep: ep}, nil
}

func (u *USBCapture) Read(p []byte) (int, error) { return u.ep.Read(p) }

func (u *USBCapture) Close() error {
	u.done()
	err := u.dev.Close()
	u.ctx.Close()
	return err
}

func (u *USBCapture) Describe() string {
	return fmt.Sprintf("TraceKit USB capture (VID=%#04x PID=%#04x, bus %d addr %d)",
		USBVendorID, USBProductID, u.dev.Desc.Bus, u.dev.Desc.Address)
}
