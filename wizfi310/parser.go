package wizfi310

import (
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/tracekit/tracekit/uart"
)

const greetingText = "WIZFI310 READY\r\n"

// EventSource is anything that produces a stream of UART events, such as
// a *uart.Decoder.
type EventSource interface {
	Next() (uart.TimestampedEvent, error)
}

// Parser reconstructs WizFi310 session events from a UART byte stream. It
// is a pull iterator like the decoders upstream of it: Next pulls as many
// UART events as needed to produce the next session event.
type Parser struct {
	src EventSource

	tx strings.Builder
	rx strings.Builder

	dataToSend    int
	dataToReceive int
	recvHeader    RecvHeader

	sawCommand bool

	pending []TimestampedEvent

	done        bool
	errSurfaced bool
	err         error
}

// NewParser returns a Parser pulling UART events from src.
func NewParser(src EventSource) *Parser {
	return &Parser{src: src}
}

// Next returns the next session event, io.EOF at a clean end of stream, or
// the first error encountered (a malformed data prompt, or the upstream
// error), after which Next returns io.EOF on every subsequent call.
func (p *Parser) Next() (TimestampedEvent, error) {
	for len(p.pending) == 0 {
		if p.done {
			if !p.errSurfaced {
				p.errSurfaced = true
				return TimestampedEvent{}, p.err
			}
			return TimestampedEvent{}, io.EOF
		}
		ev, err := p.src.Next()
		if err != nil {
			p.done = true
			p.err = err
			continue
		}
		if err := p.update(ev); err != nil {
			p.done = true
			p.err = err
			continue
		}
	}
	ev := p.pending[0]
	p.pending = p.pending[1:]
	return ev, nil
}

func (p *Parser) update(ev uart.TimestampedEvent) error {
	switch e := ev.Event.(type) {
	case uart.Tx:
		return p.acceptTx(ev.Timestamp, e.Byte)
	case uart.Rx:
		return p.acceptRx(ev.Timestamp, e.Byte)
	}
	return nil
}

func (p *Parser) acceptTx(ts float64, c byte) error {
	p.tx.WriteByte(c)
	switch {
	case p.dataToSend != 0:
		if p.tx.Len() == p.dataToSend {
			p.dataToSend = 0
			p.emit(ts, Sent{Payload: p.drainTx()})
		}
	case c == '\r':
		line := p.drainTx()
		p.emit(ts, Command{Line: line})
		p.sawCommand = true
	}
	return nil
}

func (p *Parser) acceptRx(ts float64, c byte) error {
	p.rx.WriteByte(c)

	switch {
	case p.dataToReceive != 0:
		if p.rx.Len() == p.dataToReceive {
			payload := p.drainRx()
			header := p.recvHeader
			p.dataToReceive = 0
			p.emit(ts, Recv{Header: header, Payload: payload})
		}

	case c == '\n':
		line := p.rx.String()
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]\r\n") && strings.Contains(line, ",") {
			inner := line[1 : len(line)-3]
			fields := strings.Split(inner, ",")
			if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
				p.dataToSend = n
			}
		}
		line = p.drainRx()
		if !p.sawCommand && line == greetingText {
			p.emit(ts, Greeting{Text: line})
		} else {
			p.emit(ts, Resp{Line: line})
		}

	case c == '}':
		header, err := parseRecvHeader(p.rx.String())
		if err != nil {
			return err
		}
		p.recvHeader = header.header
		p.dataToReceive = header.length
		p.rx.Reset()
	}
	return nil
}

type parsedHeader struct {
	header RecvHeader
	length int
}

// parseRecvHeader parses a `{socket,ip,port,len}` prompt. raw includes the
// leading '{' and trailing '}'.
func parseRecvHeader(raw string) (parsedHeader, error) {
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		return parsedHeader{}, ErrMalformedPrompt
	}
	inner := raw[1 : len(raw)-1]
	fields := strings.Split(inner, ",")
	if len(fields) != 4 {
		return parsedHeader{}, ErrMalformedPrompt
	}

	socketID, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return parsedHeader{}, ErrMalformedPrompt
	}
	ip := net.ParseIP(strings.TrimSpace(fields[1])).To4()
	if ip == nil {
		return parsedHeader{}, ErrMalformedPrompt
	}
	port, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return parsedHeader{}, ErrMalformedPrompt
	}
	length, err := strconv.Atoi(fields[3])
	if err != nil || length < 0 {
		return parsedHeader{}, ErrMalformedPrompt
	}

	return parsedHeader{
		header: RecvHeader{SocketID: byte(socketID), IP: ip, Port: uint16(port)},
		length: length,
	}, nil
}

func (p *Parser) drainTx() string {
	s := p.tx.String()
	p.tx.Reset()
	return s
}

func (p *Parser) drainRx() string {
	s := p.rx.String()
	p.rx.Reset()
	return s
}

func (p *Parser) emit(ts float64, ev Event) {
	p.pending = append(p.pending, TimestampedEvent{Timestamp: ts, Event: ev})
}
