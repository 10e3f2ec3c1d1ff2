package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/uart"
)

var serialCmdFlags uartFlags

var serialCmd = &cobra.Command{
	Use:   "serial [file]",
	Short: "Decode a capture to UART bytes",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := serialCmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}

		src, closer, err := openSampleSource(args)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closer.Close()

		runUART(uart.NewDecoder(src, cfg))
	},
}

func init() {
	bindUARTFlags(serialCmd, &serialCmdFlags)
	rootCmd.AddCommand(serialCmd)
}

func runUART(dec *uart.Decoder) {
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Printf("%.6f %s\n", ev.Timestamp, ev.Event)
	}
}
