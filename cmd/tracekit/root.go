package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracekit/sample"
)

var (
	vcdInput    bool
	freqHz      float64
	verbosity   int
	profileName string
)

var rootCmd = &cobra.Command{
	Use:   "tracekit [file]",
	Short: "Decode logic-analyzer captures into protocol events",
	Long: "tracekit decodes raw logic-analyzer captures into SPI bus events, " +
		"SPI-NOR flash commands, UART bytes, or WizFi310 modem transactions.",
	Args: cobra.MaximumNArgs(1),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Run: func(cmd *cobra.Command, args []string) {
		src, closer, err := openSampleSource(args)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closer.Close()

		for {
			smp, err := src.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return
			}
			fmt.Printf("%.6f %#02x\n", smp.Timestamp, smp.Channels)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&vcdInput, "vcd", false, "input is VCD text instead of the binary sample format")
	rootCmd.PersistentFlags().Float64Var(&freqHz, "freq", 1, "binary sample rate in Hz (ignored for --vcd)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "named decoder preset to load channel/protocol settings from")
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// openInput opens args[0] if given, else returns stdin. The returned closer
// is always safe to call, even for stdin.
func openInput(args []string) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return os.Stdin, io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	return f, f, nil
}

// openSampleSource wires the global --vcd/--freq flags to the right
// sample.Source implementation over args[0] or stdin.
func openSampleSource(args []string) (sample.Source, io.Closer, error) {
	r, closer, err := openInput(args)
	if err != nil {
		return nil, nil, err
	}
	if vcdInput {
		return sample.NewVCDSource(r), closer, nil
	}
	return sample.NewBinarySource(r, freqHz), closer, nil
}
