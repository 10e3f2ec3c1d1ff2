package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/uart"
	"github.com/tracekit/tracekit/wizfi310"
)

var wizfi310CmdFlags uartFlags

var wizfi310Cmd = &cobra.Command{
	Use:   "wizfi310 [file]",
	Short: "Decode a capture to WizFi310 modem transactions",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := wizfi310CmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}

		src, closer, err := openSampleSource(args)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closer.Close()

		runWizfi310(wizfi310.NewParser(uart.NewDecoder(src, cfg)))
	},
}

func init() {
	bindUARTFlags(wizfi310Cmd, &wizfi310CmdFlags)
	rootCmd.AddCommand(wizfi310Cmd)
}

func runWizfi310(p *wizfi310.Parser) {
	for {
		ev, err := p.Next()
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
