package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/spi"
)

var spiCmdFlags spiFlags

var spiCmd = &cobra.Command{
	Use:   "spi [file]",
	Short: "Decode a capture to SPI bus events",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := spiCmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}

		src, closer, err := openSampleSource(args)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closer.Close()

		runSPI(spi.NewDecoder(src, cfg))
	},
}

func init() {
	bindSPIFlags(spiCmd, &spiCmdFlags)
	rootCmd.AddCommand(spiCmd)
}

func runSPI(dec *spi.Decoder) {
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
