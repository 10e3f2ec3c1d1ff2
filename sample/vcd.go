package sample

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// preTriggerOffset is subtracted from every VCD timestamp so the first
// observed tick lands at -0.1s, matching a logic analyzer's pre-trigger
// buffer convention.
const preTriggerOffset = 0.1

// VCDSource decodes a textual value-change-dump capture: a $timescale
// declaration, a set of wire $var declarations whose name encodes the
// target channel (the second '_'-separated token, e.g. "ch_3_clk" -> channel
// 3), and a sequence of #tick timestamps and 0id/1id scalar changes.
type VCDSource struct {
	scan *bufio.Scanner

	factor   float64 // seconds per tick
	haveBase bool
	baseTs   float64
	curTs    float64

	vars  map[string]int // var id -> channel index
	state uint8          // accumulated channel bitmap

	stopped bool
	pending *Sample
}

// NewVCDSource returns a Source over the VCD text at r.
func NewVCDSource(r io.Reader) *VCDSource {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scan.Split(bufio.ScanWords)
	return &VCDSource{
		scan:   scan,
		factor: 1,
		curTs:  -preTriggerOffset,
		vars:   make(map[string]int),
	}
}

func (v *VCDSource) Next() (Sample, error) {
	if v.stopped {
		return Sample{}, io.EOF
	}

	for v.scan.Scan() {
		tok := v.scan.Text()
		switch {
		case tok == "$timescale":
			if err := v.readTimescale(); err != nil {
				v.stopped = true
				return Sample{}, err
			}
		case tok == "$var":
			if err := v.readVarDef(); err != nil {
				v.stopped = true
				return Sample{}, err
			}
		case tok == "$dumpvars", tok == "$dumpon", tok == "$dumpoff", tok == "$dumpall", tok == "$end":
			// $dumpvars/$dumpon/off/all wrap ordinary value changes and are
			// closed by a bare $end; no content to skip.
		case strings.HasPrefix(tok, "$"):
			v.skipUntilEnd(tok)
		case strings.HasPrefix(tok, "#"):
			if err := v.readTimestamp(tok[1:]); err != nil {
				v.stopped = true
				return Sample{}, err
			}
		case tok[0] == '0' || tok[0] == '1':
			smp, err := v.applyChange(tok)
			if err != nil {
				v.stopped = true
				return Sample{}, err
			}
			return smp, nil
		case tok[0] == 'x' || tok[0] == 'X' || tok[0] == 'z' || tok[0] == 'Z':
			v.stopped = true
			return Sample{}, fmt.Errorf("%w: unsupported value %q", ErrUnsupportedFeature, tok)
		default:
			// Stray or unrecognized token: tolerated, ignored.
		}
	}
	if err := v.scan.Err(); err != nil {
		v.stopped = true
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	v.stopped = true
	return Sample{}, io.EOF
}

func (v *VCDSource) readTimescale() error {
	var parts []string
	for v.scan.Scan() {
		tok := v.scan.Text()
		if tok == "$end" {
			break
		}
		parts = append(parts, tok)
	}
	joined := strings.Join(parts, "")
	n, unit, err := splitNumberUnit(joined)
	if err != nil {
		return fmt.Errorf("%w: invalid $timescale %q: %v", ErrMalformedInput, joined, err)
	}
	factor, err := timescaleFactor(unit)
	if err != nil {
		return err
	}
	v.factor = n * factor
	return nil
}

// splitNumberUnit splits a joined timescale token like "100ns" into its
// leading numeric magnitude and trailing unit string.
func splitNumberUnit(s string) (float64, string, error) {
	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, "", fmt.Errorf("no numeric magnitude in %q", s)
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", err
	}
	return n, s[i:], nil
}

func timescaleFactor(unit string) (float64, error) {
	switch unit {
	case "s":
		return 1, nil
	case "ms":
		return 1e-3, nil
	case "us", "µs":
		return 1e-6, nil
	case "ns":
		return 1e-9, nil
	case "ps":
		return 1e-12, nil
	case "fs":
		return 1e-15, nil
	default:
		return 0, fmt.Errorf("%w: unknown timescale unit %q", ErrMalformedInput, unit)
	}
}

func (v *VCDSource) readVarDef() error {
	var parts []string
	for v.scan.Scan() {
		tok := v.scan.Text()
		if tok == "$end" {
			break
		}
		parts = append(parts, tok)
	}
	if len(parts) < 4 {
		return fmt.Errorf("%w: malformed $var declaration", ErrMalformedInput)
	}
	typ, id, name := parts[0], parts[2], parts[3]
	if typ != "wire" {
		return fmt.Errorf("%w: unsupported VCD variable type %q", ErrUnsupportedFeature, typ)
	}
	fields := strings.Split(name, "_")
	if len(fields) < 2 {
		return fmt.Errorf("%w: variable name %q does not encode a channel index", ErrMalformedInput, name)
	}
	ch, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("%w: variable name %q does not encode a channel index: %v", ErrMalformedInput, name, err)
	}
	v.vars[id] = ch
	return nil
}

// skipUntilEnd consumes tokens belonging to a VCD command block this
// decoder doesn't interpret (e.g. $scope, $date, $comment) up to and
// including its closing $end.
func (v *VCDSource) skipUntilEnd(keyword string) {
	for v.scan.Scan() {
		if v.scan.Text() == "$end" {
			return
		}
	}
}

func (v *VCDSource) readTimestamp(ticksStr string) error {
	ticks, err := strconv.ParseInt(ticksStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp %q: %v", ErrMalformedInput, ticksStr, err)
	}
	newTs := float64(ticks) * v.factor
	if !v.haveBase {
		v.haveBase = true
		v.baseTs = newTs
	}
	newTs = newTs - v.baseTs - preTriggerOffset
	if newTs < v.curTs {
		return fmt.Errorf("%w: timestamp must be non-decreasing (%.9f < %.9f)", ErrMalformedInput, newTs, v.curTs)
	}
	v.curTs = newTs
	return nil
}

func (v *VCDSource) applyChange(tok string) (Sample, error) {
	value := tok[0]
	id := tok[1:]
	shift, ok := v.vars[id]
	if !ok {
		// Unknown variable id: tolerated, treated as a no-op change.
		return Sample{Timestamp: v.curTs, Channels: v.state}, nil
	}
	bit := uint8(0)
	if value == '1' {
		bit = 1
	}
	v.state &^= 1 << uint(shift)
	v.state |= bit << uint(shift)
	return Sample{Timestamp: v.curTs, Channels: v.state}, nil
}
