package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/capture"
	"github.com/tracekit/tracekit/flash"
	"github.com/tracekit/tracekit/sample"
	"github.com/tracekit/tracekit/spi"
	"github.com/tracekit/tracekit/uart"
	"github.com/tracekit/tracekit/wizfi310"
)

var useUSBCapture bool

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Decode from a live-probed capture adapter instead of a file",
}

var captureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached capture adapters",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		matches, err := capture.ListMatches()
		if err != nil {
			cobra.CheckErr(err)
		}
		if len(matches) == 0 {
			fmt.Println("no serial capture adapters found (pass --usb to try the raw USB bulk transport)")
			return
		}
		for _, m := range matches {
			fmt.Println(m)
		}
	},
}

var captureSPICmdFlags spiFlags

var captureSPICmd = &cobra.Command{
	Use:   "spi",
	Short: "Decode SPI bus events from a live capture adapter",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := captureSPICmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}
		src, dev, err := openCaptureSource()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer dev.Close()
		runSPI(spi.NewDecoder(src, cfg))
	},
}

var (
	captureSPIFCmdFlags       spiFlags
	captureSPIFMaxTransaction int
)

var captureSPIFCmd = &cobra.Command{
	Use:   "spif",
	Short: "Decode SPI-NOR flash commands from a live capture adapter",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := captureSPIFCmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}
		src, dev, err := openCaptureSource()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer dev.Close()

		parser := flash.NewParser(spi.NewDecoder(src, cfg))
		if captureSPIFMaxTransaction > 0 {
			parser.MaxTransactionBytes = captureSPIFMaxTransaction
		}
		runFlash(parser)
	},
}

var captureSerialCmdFlags uartFlags

var captureSerialCmd = &cobra.Command{
	Use:   "serial",
	Short: "Decode UART bytes from a live capture adapter",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := captureSerialCmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}
		src, dev, err := openCaptureSource()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer dev.Close()
		runUART(uart.NewDecoder(src, cfg))
	},
}

var captureWizfi310CmdFlags uartFlags

var captureWizfi310Cmd = &cobra.Command{
	Use:   "wizfi310",
	Short: "Decode WizFi310 modem transactions from a live capture adapter",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := captureWizfi310CmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}
		src, dev, err := openCaptureSource()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer dev.Close()
		runWizfi310(wizfi310.NewParser(uart.NewDecoder(src, cfg)))
	},
}

func init() {
	bindSPIFlags(captureSPICmd, &captureSPICmdFlags)
	bindSPIFlags(captureSPIFCmd, &captureSPIFCmdFlags)
	captureSPIFCmd.Flags().IntVar(&captureSPIFMaxTransaction, "max-transaction-bytes", 0,
		"abandon a variable-length command after this many bytes (0 uses the built-in default)")
	bindUARTFlags(captureSerialCmd, &captureSerialCmdFlags)
	bindUARTFlags(captureWizfi310Cmd, &captureWizfi310CmdFlags)

	captureCmd.PersistentFlags().BoolVar(&useUSBCapture, "usb", false,
		"use the raw USB bulk-transfer adapter instead of probing serial ports")

	captureCmd.AddCommand(captureListCmd, captureSPICmd, captureSPIFCmd, captureSerialCmd, captureWizfi310Cmd)
	rootCmd.AddCommand(captureCmd)
}

// openCaptureSource opens a live capture adapter and wraps it as a
// sample.Source, the same binary format a captured file uses. With --usb it
// opens the raw USB bulk transport directly; otherwise it probes serial
// ports first and falls back to the USB transport if none match.
func openCaptureSource() (sample.Source, capture.Device, error) {
	if useUSBCapture {
		dev, err := capture.OpenUSBCapture()
		if err != nil {
			return nil, nil, err
		}
		return sample.NewBinarySource(dev, freqHz), dev, nil
	}

	dev, err := capture.Probe()
	if err == nil {
		return sample.NewBinarySource(dev, freqHz), dev, nil
	}

	usbDev, usbErr := capture.OpenUSBCapture()
	if usbErr != nil {
		return nil, nil, err
	}
	return sample.NewBinarySource(usbDev, freqHz), usbDev, nil
}
