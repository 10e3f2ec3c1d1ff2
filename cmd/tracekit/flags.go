package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/profile"
	"github.com/tracekit/tracekit/spi"
	"github.com/tracekit/tracekit/uart"
)

// spiFlags holds the per-subcommand SPI channel/mode flags, bound by each
// command that decodes SPI (spi, spif, and their capture counterparts).
type spiFlags struct {
	cs, miso, mosi, clk int
	mode                int
	csActive            string
}

func bindSPIFlags(cmd *cobra.Command, f *spiFlags) {
	cmd.Flags().IntVar(&f.cs, "cs", 3, "channel carrying chip select")
	cmd.Flags().IntVar(&f.miso, "miso", 2, "channel carrying MISO")
	cmd.Flags().IntVar(&f.mosi, "mosi", 1, "channel carrying MOSI")
	cmd.Flags().IntVar(&f.clk, "clk", 0, "channel carrying the clock")
	cmd.Flags().IntVar(&f.mode, "mode", 0, "SPI mode (0-3)")
	cmd.Flags().StringVar(&f.csActive, "cs-active", "low", "chip-select active level (\"high\" or \"low\")")
}

// resolve returns the SPI config named by --profile if set, else one built
// from the bound flags.
func (f *spiFlags) resolve() (spi.Config, error) {
	if profileName != "" {
		p, err := profile.Load(profileName)
		if err != nil {
			return spi.Config{}, err
		}
		if p.SPI == nil {
			return spi.Config{}, fmt.Errorf("profile %q is not an spi profile", profileName)
		}
		return *p.SPI, nil
	}

	var mode spi.Mode
	switch f.mode {
	case 0:
		mode = spi.Mode0()
	case 1:
		mode = spi.Mode1()
	case 2:
		mode = spi.Mode2()
	case 3:
		mode = spi.Mode3()
	default:
		return spi.Config{}, fmt.Errorf("invalid --mode %d (must be 0-3)", f.mode)
	}

	var active spi.Level
	switch f.csActive {
	case "low":
		active = spi.ActiveLow
	case "high":
		active = spi.ActiveHigh
	default:
		return spi.Config{}, fmt.Errorf("invalid --cs-active %q (must be \"high\" or \"low\")", f.csActive)
	}

	return spi.Config{
		CS: f.cs, MISO: f.miso, MOSI: f.mosi, CLK: f.clk,
		CSActive: active, Mode: mode,
	}, nil
}

// uartFlags holds the per-subcommand UART channel/timing flags, bound by
// each command that decodes UART (serial, wizfi310, and their capture
// counterparts).
type uartFlags struct {
	tx, rx   int
	rts, cts int
	baud     float64
	parity   string
	stop     float64
}

func bindUARTFlags(cmd *cobra.Command, f *uartFlags) {
	cmd.Flags().IntVar(&f.tx, "tx", 0, "channel carrying tx")
	cmd.Flags().IntVar(&f.rx, "rx", 1, "channel carrying rx")
	cmd.Flags().IntVar(&f.rts, "rts", -1, "channel carrying rts, or -1 if absent")
	cmd.Flags().IntVar(&f.cts, "cts", -1, "channel carrying cts, or -1 if absent")
	cmd.Flags().Float64Var(&f.baud, "baud", 9600, "baud rate in bits/second")
	cmd.Flags().StringVar(&f.parity, "parity", "none", "parity scheme (none, even, odd, set, clear)")
	cmd.Flags().Float64Var(&f.stop, "stop", 1, "stop-bit length")
}

func (f *uartFlags) resolve() (uart.Config, error) {
	if profileName != "" {
		p, err := profile.Load(profileName)
		if err != nil {
			return uart.Config{}, err
		}
		if p.UART == nil {
			return uart.Config{}, fmt.Errorf("profile %q is not a uart profile", profileName)
		}
		return *p.UART, nil
	}

	var parity uart.Parity
	switch f.parity {
	case "none":
		parity = uart.ParityNone
	case "even":
		parity = uart.ParityEven
	case "odd":
		parity = uart.ParityOdd
	case "set":
		parity = uart.ParitySet
	case "clear":
		parity = uart.ParityClear
	default:
		return uart.Config{}, fmt.Errorf("invalid --parity %q", f.parity)
	}

	cfg := uart.Config{TX: f.tx, RX: f.rx, Baud: f.baud, Parity: parity, StopBits: f.stop}
	if f.rts >= 0 {
		rts := f.rts
		cfg.RTS = &rts
	}
	if f.cts >= 0 {
		cts := f.cts
		cfg.CTS = &cts
	}
	return cfg, nil
}
