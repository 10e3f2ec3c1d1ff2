// Command tracekit decodes raw logic-analyzer captures (binary sample
// records or VCD text) into SPI bus events, SPI-NOR flash commands, UART
// bytes, or WizFi310 modem transactions.
package main

func main() {
	Execute()
}
