package flash

import (
	"fmt"
	"io"

	"github.com/tracekit/tracekit/spi"
)

// EventSource is anything that produces a stream of SPI bus events, such as
// a *spi.Decoder. Parser depends on this narrow interface rather than the
// concrete decoder type.
type EventSource interface {
	Next() (spi.TimestampedEvent, error)
}

type kind int

const (
	kindNone kind = iota
	kindRead
	kindReadStatusRegister
	kindPageProgram
	kindBlockErase
	kindBlockErase32
	kindSectorErase
	kindReadSFDP
	kindReadDeviceID
)

// recognizedUnsupported names opcodes the parser recognizes but does not
// disassemble, so an unsupported-opcode error can name the instruction
// instead of just its byte value.
var recognizedUnsupported = map[byte]string{
	0x0B: "Fast Read",
	0x3B: "Fast Read Dual Output",
	0x6B: "Fast Read Quad Output",
	0xBB: "Fast Read Dual I/O",
	0xEB: "Fast Read Quad I/O",
	0x04: "Write Disable",
	0x01: "Write Status Register",
	0x38: "Quad Page Program",
	0x60: "Chip Erase",
	0xC7: "Chip Erase",
	0x90: "Read Manufacturer/Device ID (REMS)",
	0xAB: "Release Power Down / Device ID",
}

var fastReadOpcodes = map[byte]bool{
	0x0B: true, 0x3B: true, 0x6B: true, 0xBB: true, 0xEB: true,
}

// Parser disassembles SPI bus events into SPI-NOR flash commands. Like
// spi.Decoder, it is a pull iterator: Next pulls as many upstream events as
// needed to produce the next command.
type Parser struct {
	src EventSource

	// MaxTransactionBytes bounds the payload of a Read, PageProgram, or
	// ReadSFDP command. Set by NewParser to DefaultMaxTransactionBytes;
	// may be lowered or raised before the first call to Next.
	MaxTransactionBytes int

	cs   bool
	kind kind

	startTs  float64
	addr     uint32
	data     []byte
	idx      int
	mfr      byte
	deviceID uint16

	pending []TimestampedCommand
	done    bool
}

// NewParser returns a Parser pulling SPI events from src.
func NewParser(src EventSource) *Parser {
	return &Parser{src: src, MaxTransactionBytes: DefaultMaxTransactionBytes}
}

// Next returns the next flash command, io.EOF at a clean end of stream, or
// an upstream error (which ends the stream permanently, like the upstream
// error contract other decoders follow). An unsupported opcode or a
// transaction overflow is returned as an error from a single Next call, but
// does not end the stream. After an unsupported opcode no command is in
// progress, so the next data byte is read as an opcode, same as the
// original's "stay with partial = None" recovery rule. After an overflow the
// in-progress command is discarded and the rest of the transaction is
// ignored until the next chip-select assertion.
func (p *Parser) Next() (TimestampedCommand, error) {
	if p.done {
		return TimestampedCommand{}, io.EOF
	}
	for len(p.pending) == 0 {
		ev, err := p.src.Next()
		if err != nil {
			p.done = true
			return TimestampedCommand{}, err
		}
		if err := p.update(ev); err != nil {
			return TimestampedCommand{}, err
		}
	}
	cmd := p.pending[0]
	p.pending = p.pending[1:]
	return cmd, nil
}

func (p *Parser) update(ev spi.TimestampedEvent) error {
	switch e := ev.Event.(type) {
	case spi.ChipSelect:
		p.cs = e.Active
		if !e.Active {
			p.finalizeOnDeselect()
		}
	case spi.Data:
		if !p.cs {
			return nil
		}
		return p.acceptData(ev.Timestamp, e.Mosi, e.Miso)
	}
	return nil
}

// finalizeOnDeselect completes the variable-length commands that only end
// when chip-select is released. Any other in-progress command is simply
// abandoned, matching the original parser's recovery model.
func (p *Parser) finalizeOnDeselect() {
	switch p.kind {
	case kindRead:
		p.emit(p.startTs, Read{Addr: p.addr, Data: p.data})
	case kindPageProgram:
		p.emit(p.startTs, PageProgram{Addr: p.addr, Data: p.data})
	case kindReadSFDP:
		p.emit(p.startTs, ReadSFDP{Addr: p.addr, Data: p.data})
	}
	p.reset()
}

func (p *Parser) reset() {
	p.kind = kindNone
	p.addr = 0
	p.data = nil
	p.idx = 0
	p.mfr = 0
	p.deviceID = 0
}

func (p *Parser) acceptData(ts float64, mosi, miso byte) error {
	switch p.kind {
	case kindNone:
		return p.newCommand(ts, mosi, miso)

	case kindRead:
		if p.idx < 3 {
			p.addr = (p.addr << 8) | uint32(mosi)
			p.idx++
			return nil
		}
		return p.appendByte(miso)

	case kindReadStatusRegister:
		p.emit(p.startTs, ReadStatusRegister{Value: miso})
		p.reset()

	case kindBlockErase:
		if p.idx < 2 {
			p.addr = (p.addr << 8) | uint32(mosi)
			p.idx++
			return nil
		}
		p.emit(p.startTs, BlockErase{Addr: (p.addr << 8) | uint32(mosi)})
		p.reset()

	case kindBlockErase32:
		if p.idx < 2 {
			p.addr = (p.addr << 8) | uint32(mosi)
			p.idx++
			return nil
		}
		p.emit(p.startTs, BlockErase32{Addr: (p.addr << 8) | uint32(mosi)})
		p.reset()

	case kindSectorErase:
		if p.idx < 2 {
			p.addr = (p.addr << 8) | uint32(mosi)
			p.idx++
			return nil
		}
		p.emit(p.startTs, SectorErase{Addr: (p.addr << 8) | uint32(mosi)})
		p.reset()

	case kindPageProgram:
		if p.idx < 3 {
			p.addr = (p.addr << 8) | uint32(mosi)
			p.idx++
			return nil
		}
		return p.appendByte(mosi)

	case kindReadSFDP:
		if p.idx < 3 {
			p.addr = (p.addr << 8) | uint32(mosi)
			p.idx++
			return nil
		}
		return p.appendByte(miso)

	case kindReadDeviceID:
		switch p.idx {
		case 0:
			p.mfr = miso
			p.idx++
		case 1:
			p.deviceID = uint16(miso) << 8
			p.idx++
		case 2:
			p.deviceID |= uint16(miso)
			p.emit(p.startTs, ReadDeviceID{Mfr: p.mfr, DeviceID: p.deviceID})
			p.reset()
		}
	}
	return nil
}

func (p *Parser) appendByte(b byte) error {
	if len(p.data) >= p.MaxTransactionBytes {
		p.reset()
		// Ignore the rest of this transaction: data is accepted again only
		// after the next chip-select assertion.
		p.cs = false
		return fmt.Errorf("%w: transaction exceeds %d bytes", ErrTransactionOverflow, p.MaxTransactionBytes)
	}
	p.data = append(p.data, b)
	return nil
}

func (p *Parser) newCommand(ts float64, mosi, miso byte) error {
	p.idx = 0
	p.startTs = ts
	switch mosi {
	case 0x02:
		p.kind = kindPageProgram
	case 0x03:
		p.kind = kindRead
	case 0x05:
		p.kind = kindReadStatusRegister
	case 0x06:
		p.emit(ts, WriteEnable{})
	case 0x20:
		p.kind = kindSectorErase
	case 0x52:
		p.kind = kindBlockErase32
	case 0x5A:
		p.kind = kindReadSFDP
	case 0x66:
		p.emit(ts, ResetEnable{})
	case 0x99:
		p.emit(ts, Reset{})
	case 0x9F:
		p.kind = kindReadDeviceID
	case 0xD8:
		p.kind = kindBlockErase
	default:
		if name, ok := recognizedUnsupported[mosi]; ok {
			if fastReadOpcodes[mosi] {
				return fmt.Errorf("%w: %#02x (%s, fast-read variant with dummy cycles not decoded)", ErrUnsupportedOpcode, mosi, name)
			}
			return fmt.Errorf("%w: %#02x (%s, recognized but not decoded)", ErrUnsupportedOpcode, mosi, name)
		}
		return fmt.Errorf("%w: %#02x", ErrUnsupportedOpcode, mosi)
	}
	return nil
}

func (p *Parser) emit(ts float64, cmd Command) {
	p.pending = append(p.pending, TimestampedCommand{Timestamp: ts, Command: cmd})
}
