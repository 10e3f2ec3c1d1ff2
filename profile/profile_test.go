package profile

import (
	"testing"

	"github.com/tracekit/tracekit/uart"
)

func TestDecode_EmbeddedDefaultsParse(t *testing.T) {
	profiles, def, err := decode(defaultProfileData)
	if err != nil {
		t.Fatalf("unexpected error decoding embedded defaults: %v", err)
	}
	if def == "" {
		t.Fatal("expected a non-empty default profile name")
	}
	if _, ok := profiles[def]; !ok {
		t.Fatalf("default profile %q not present among decoded profiles", def)
	}
}

func TestLoadDefault_ResolvesSPIProfile(t *testing.T) {
	p, err := LoadDefault()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != "spi" {
		t.Fatalf("got kind %q, want spi", p.Kind)
	}
	if p.SPI == nil {
		t.Fatal("expected SPI config to be set")
	}
	if p.UART != nil {
		t.Fatal("expected UART config to be nil for an spi profile")
	}
}

func TestLoad_UARTProfileWithFlowControl(t *testing.T) {
	p, err := Load("wizfi310-default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != "uart" {
		t.Fatalf("got kind %q, want uart", p.Kind)
	}
	if p.UART == nil {
		t.Fatal("expected UART config to be set")
	}
	if p.UART.RTS == nil || p.UART.CTS == nil {
		t.Fatal("expected rts/cts channels to be set for wizfi310-default")
	}
	if *p.UART.RTS != 2 || *p.UART.CTS != 3 {
		t.Errorf("got rts=%v cts=%v, want 2 and 3", *p.UART.RTS, *p.UART.CTS)
	}
	if p.UART.Baud != 115200 {
		t.Errorf("got baud %v, want 115200", p.UART.Baud)
	}
}

func TestLoad_UnknownProfileNameErrors(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected an error for an unknown profile name")
	}
}

func TestFileProfile_RejectsUnknownKind(t *testing.T) {
	fp := fileProfile{Name: "bad", Kind: "i2c"}
	if _, err := fp.resolve(); err == nil {
		t.Fatal("expected an error for an unrecognized profile kind")
	}
}

func TestFileProfile_DefaultsStopBitsToOne(t *testing.T) {
	fp := fileProfile{Name: "uart-default-stop", Kind: "uart", Baud: 9600, Parity: "none"}
	p, err := fp.resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UART.StopBits != 1 {
		t.Errorf("got stop bits %v, want 1", p.UART.StopBits)
	}
}

func TestFileProfile_RejectsUnknownParity(t *testing.T) {
	fp := fileProfile{Name: "bad-parity", Kind: "uart", Baud: 9600, Parity: "triple"}
	if _, err := fp.resolve(); err == nil {
		t.Fatal("expected an error for an unknown parity scheme")
	}
}

func TestFileProfile_RejectsInvalidSPIMode(t *testing.T) {
	fp := fileProfile{Name: "bad-mode", Kind: "spi", Mode: 7}
	if _, err := fp.resolve(); err == nil {
		t.Fatal("expected an error for an out-of-range spi mode")
	}
}

func TestFileProfile_CSActiveHigh(t *testing.T) {
	fp := fileProfile{Name: "active-high", Kind: "spi", CSActive: "high"}
	p, err := fp.resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SPI.CSActive != true {
		t.Errorf("got CSActive %v, want true (ActiveHigh)", p.SPI.CSActive)
	}
}

func TestDecode_MergeOverrideWinsOverDefault(t *testing.T) {
	base := []byte(`
default = "a"

[[profile]]
name = "a"
kind = "uart"
baud = 9600
parity = "none"
`)
	override := []byte(`
default = "b"

[[profile]]
name = "b"
kind = "uart"
baud = 115200
parity = "even"
`)

	baseProfiles, baseDef, err := decode(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overrideProfiles, overrideDef, err := decode(override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged := make(map[string]Profile)
	for k, v := range baseProfiles {
		merged[k] = v
	}
	for k, v := range overrideProfiles {
		merged[k] = v
	}
	def := baseDef
	if overrideDef != "" {
		def = overrideDef
	}

	if def != "b" {
		t.Fatalf("got default %q, want b", def)
	}
	if merged["b"].UART.Parity != uart.ParityEven {
		t.Errorf("got parity %v, want even", merged["b"].UART.Parity)
	}
	if _, ok := merged["a"]; !ok {
		t.Error("expected profile \"a\" to still be present after merge")
	}
}
