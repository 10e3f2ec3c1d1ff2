// Package profile loads named decoder presets: channel assignments and
// protocol parameters for the spi and uart decoders, so a capture can be
// decoded by name ("spi-default", "wizfi310-default", ...) instead of
// repeating a pile of flags on every invocation.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/tracekit/tracekit/spi"
	"github.com/tracekit/tracekit/uart"
)

//go:embed profiles.toml
var defaultProfileData []byte

// fileProfile is the raw TOML shape for one [[profile]] entry. Only the
// fields relevant to Kind are expected to be set; the rest are ignored.
type fileProfile struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`

	CS       int    `toml:"cs"`
	MISO     int    `toml:"miso"`
	MOSI     int    `toml:"mosi"`
	CLK      int    `toml:"clk"`
	Mode     int    `toml:"mode"`
	CSActive string `toml:"cs_active"`

	TX       int     `toml:"tx"`
	RX       int     `toml:"rx"`
	RTS      *int    `toml:"rts"`
	CTS      *int    `toml:"cts"`
	Baud     float64 `toml:"baud"`
	Parity   string  `toml:"parity"`
	StopBits float64 `toml:"stop_bits"`
}

// file is the entire TOML document: a default profile name plus the list
// of named profiles.
type file struct {
	Default string        `toml:"default"`
	Profile []fileProfile `toml:"profile"`
}

// Profile is one resolved decoder preset: either an SPI channel/mode
// assignment or a UART channel/timing assignment, never both.
type Profile struct {
	Name string
	Kind string

	SPI  *spi.Config
	UART *uart.Config
}

func parseParity(s string) (uart.Parity, error) {
	switch s {
	case "", "none":
		return uart.ParityNone, nil
	case "even":
		return uart.ParityEven, nil
	case "odd":
		return uart.ParityOdd, nil
	case "set":
		return uart.ParitySet, nil
	case "clear":
		return uart.ParityClear, nil
	default:
		return 0, fmt.Errorf("profile: unknown parity %q", s)
	}
}

func parseMode(n int) (spi.Mode, error) {
	switch n {
	case 0:
		return spi.Mode0(), nil
	case 1:
		return spi.Mode1(), nil
	case 2:
		return spi.Mode2(), nil
	case 3:
		return spi.Mode3(), nil
	default:
		return spi.Mode{}, fmt.Errorf("profile: invalid spi mode %d (must be 0-3)", n)
	}
}

func (fp fileProfile) resolve() (Profile, error) {
	switch fp.Kind {
	case "spi":
		mode, err := parseMode(fp.Mode)
		if err != nil {
			return Profile{}, fmt.Errorf("profile %q: %w", fp.Name, err)
		}
		active := spi.ActiveLow
		switch fp.CSActive {
		case "", "low":
			active = spi.ActiveLow
		case "high":
			active = spi.ActiveHigh
		default:
			return Profile{}, fmt.Errorf("profile %q: invalid cs_active %q (want \"low\" or \"high\")", fp.Name, fp.CSActive)
		}
		return Profile{
			Name: fp.Name,
			Kind: fp.Kind,
			SPI: &spi.Config{
				CS: fp.CS, MISO: fp.MISO, MOSI: fp.MOSI, CLK: fp.CLK,
				CSActive: active, Mode: mode,
			},
		}, nil

	case "uart":
		parity, err := parseParity(fp.Parity)
		if err != nil {
			return Profile{}, fmt.Errorf("profile %q: %w", fp.Name, err)
		}
		if fp.Baud <= 0 {
			return Profile{}, fmt.Errorf("profile %q: invalid baud %v (must be positive)", fp.Name, fp.Baud)
		}
		stop := fp.StopBits
		if stop == 0 {
			stop = 1
		}
		return Profile{
			Name: fp.Name,
			Kind: fp.Kind,
			UART: &uart.Config{
				TX: fp.TX, RX: fp.RX, RTS: fp.RTS, CTS: fp.CTS,
				Baud: fp.Baud, Parity: parity, StopBits: stop,
			},
		}, nil

	default:
		return Profile{}, fmt.Errorf("profile %q: unknown kind %q (want \"spi\" or \"uart\")", fp.Name, fp.Kind)
	}
}

// overridePath returns the per-user override location for profiles.toml:
// AppData on Windows, an XDG-style subdirectory of the home directory
// elsewhere.
func overridePath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "tracekit")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "tracekit")
			break
		}
		home, err2 := os.UserHomeDir()
		if err2 != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err2)
		}
		configDir = filepath.Join(home, ".config", "tracekit")
	}

	return filepath.Join(configDir, "profiles.toml"), nil
}

// decode parses raw TOML bytes into a name -> Profile map plus the
// document's declared default name.
func decode(data []byte) (map[string]Profile, string, error) {
	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, "", fmt.Errorf("profile: failed to parse TOML: %w", err)
	}

	profiles := make(map[string]Profile, len(f.Profile))
	for _, fp := range f.Profile {
		if fp.Name == "" {
			return nil, "", fmt.Errorf("profile: entry with empty name")
		}
		p, err := fp.resolve()
		if err != nil {
			return nil, "", err
		}
		profiles[fp.Name] = p
	}
	return profiles, f.Default, nil
}

// Load returns the named profile, searching the user override file first
// (if present) and falling back to the embedded defaults.
func Load(name string) (Profile, error) {
	profiles, _, err := loadMerged()
	if err != nil {
		return Profile{}, err
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: %q not found", name)
	}
	return p, nil
}

// LoadDefault returns the profile named by the active document's `default`
// key: the override file's, if one exists and sets it, else the embedded
// default's.
func LoadDefault() (Profile, error) {
	profiles, def, err := loadMerged()
	if err != nil {
		return Profile{}, err
	}
	if def == "" {
		return Profile{}, fmt.Errorf("profile: no default profile configured")
	}
	p, ok := profiles[def]
	if !ok {
		return Profile{}, fmt.Errorf("profile: default profile %q not found", def)
	}
	return p, nil
}

// loadMerged decodes the embedded defaults, then, if a per-user override
// file exists, decodes it over top: a name present in both resolves to the
// override's entry, and an override-only `default` wins.
func loadMerged() (map[string]Profile, string, error) {
	profiles, def, err := decode(defaultProfileData)
	if err != nil {
		return nil, "", err
	}

	path, err := overridePath()
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profiles, def, nil
		}
		return nil, "", fmt.Errorf("profile: failed to read override at %s: %w", path, err)
	}

	overrides, overrideDef, err := decode(data)
	if err != nil {
		return nil, "", err
	}
	for name, p := range overrides {
		profiles[name] = p
	}
	if overrideDef != "" {
		def = overrideDef
	}
	return profiles, def, nil
}
