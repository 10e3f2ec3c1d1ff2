package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/flash"
	"github.com/tracekit/tracekit/spi"
)

var (
	spifCmdFlags       spiFlags
	spifMaxTransaction int
)

var spifCmd = &cobra.Command{
	Use:   "spif [file]",
	Short: "Decode a capture to SPI-NOR flash commands",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := spifCmdFlags.resolve()
		if err != nil {
			cobra.CheckErr(err)
		}

		src, closer, err := openSampleSource(args)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closer.Close()

		parser := flash.NewParser(spi.NewDecoder(src, cfg))
		if spifMaxTransaction > 0 {
			parser.MaxTransactionBytes = spifMaxTransaction
		}
		runFlash(parser)
	},
}

func init() {
	bindSPIFlags(spifCmd, &spifCmdFlags)
	spifCmd.Flags().IntVar(&spifMaxTransaction, "max-transaction-bytes", 0,
		"abandon a variable-length command after this many bytes (0 uses the built-in default)")
	rootCmd.AddCommand(spifCmd)
}

func runFlash(p *flash.Parser) {
	for {
		cmd, err := p.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Printf("%.6f %s\n", cmd.Timestamp, cmd.Command)
	}
}
