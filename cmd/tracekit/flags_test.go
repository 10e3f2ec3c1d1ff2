package main

import (
	"testing"

	"github.com/tracekit/tracekit/spi"
	"github.com/tracekit/tracekit/uart"
)

func TestSPIFlags_ResolveFromFlags(t *testing.T) {
	profileName = ""
	f := spiFlags{cs: 3, miso: 2, mosi: 1, clk: 0, mode: 2, csActive: "high"}
	cfg, err := f.resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != spi.Mode2() {
		t.Errorf("got mode %v, want Mode2", cfg.Mode)
	}
	if cfg.CSActive != spi.ActiveHigh {
		t.Errorf("got cs active %v, want ActiveHigh", cfg.CSActive)
	}
}

func TestSPIFlags_RejectsInvalidMode(t *testing.T) {
	profileName = ""
	f := spiFlags{mode: 9, csActive: "low"}
	if _, err := f.resolve(); err == nil {
		t.Fatal("expected an error for an out-of-range mode")
	}
}

func TestSPIFlags_RejectsInvalidCSActive(t *testing.T) {
	profileName = ""
	f := spiFlags{mode: 0, csActive: "sideways"}
	if _, err := f.resolve(); err == nil {
		t.Fatal("expected an error for an invalid cs-active value")
	}
}

func TestSPIFlags_ResolveFromProfile(t *testing.T) {
	profileName = "spi-default"
	defer func() { profileName = "" }()

	f := spiFlags{}
	cfg, err := f.resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CS != 3 || cfg.MOSI != 1 || cfg.MISO != 2 || cfg.CLK != 0 {
		t.Errorf("got %+v, want the channels from the spi-default profile", cfg)
	}
}

func TestUARTFlags_ResolveFromFlags(t *testing.T) {
	profileName = ""
	f := uartFlags{tx: 0, rx: 1, rts: -1, cts: -1, baud: 19200, parity: "even", stop: 1}
	cfg, err := f.resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parity != uart.ParityEven {
		t.Errorf("got parity %v, want even", cfg.Parity)
	}
	if cfg.RTS != nil || cfg.CTS != nil {
		t.Error("expected RTS/CTS to be nil when flags are -1")
	}
}

func TestUARTFlags_SetsRTSCTSWhenNonNegative(t *testing.T) {
	profileName = ""
	f := uartFlags{tx: 0, rx: 1, rts: 2, cts: 3, baud: 9600, parity: "none", stop: 1}
	cfg, err := f.resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RTS == nil || *cfg.RTS != 2 {
		t.Errorf("got rts %v, want pointer to 2", cfg.RTS)
	}
	if cfg.CTS == nil || *cfg.CTS != 3 {
		t.Errorf("got cts %v, want pointer to 3", cfg.CTS)
	}
}

func TestUARTFlags_RejectsInvalidParity(t *testing.T) {
	profileName = ""
	f := uartFlags{parity: "quadrature"}
	if _, err := f.resolve(); err == nil {
		t.Fatal("expected an error for an unknown parity scheme")
	}
}

func TestUARTFlags_ResolveFromProfile(t *testing.T) {
	profileName = "wizfi310-default"
	defer func() { profileName = "" }()

	f := uartFlags{}
	cfg, err := f.resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Baud != 115200 {
		t.Errorf("got baud %v, want 115200", cfg.Baud)
	}
	if cfg.RTS == nil || cfg.CTS == nil {
		t.Error("expected rts/cts to be set from the wizfi310-default profile")
	}
}
