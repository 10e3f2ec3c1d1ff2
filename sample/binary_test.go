package sample

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func encodeRecord(ticks int64, channels uint8) []byte {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ticks))
	buf[8] = channels
	return buf
}

func TestBinarySource_SingleRecord(t *testing.T) {
	data := encodeRecord(1000, 0xFF)
	src := NewBinarySource(bytes.NewReader(data), 1000)

	smp, err := src.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if smp.Timestamp != 1.0 {
		t.Errorf("timestamp = %v, want 1.000000", smp.Timestamp)
	}
	if smp.Channels != 0xFF {
		t.Errorf("channels = %#x, want 0xff", smp.Channels)
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("second Next() err = %v, want io.EOF", err)
	}
}

func TestBinarySource_FreqZeroRewrittenToOne(t *testing.T) {
	data := encodeRecord(42, 0x01)
	src := NewBinarySource(bytes.NewReader(data), 0)

	smp, err := src.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if smp.Timestamp != 42 {
		t.Errorf("timestamp = %v, want 42", smp.Timestamp)
	}
}

func TestBinarySource_MultipleRecords(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeRecord(0, 0x00))
	buf.Write(encodeRecord(500, 0x01))
	buf.Write(encodeRecord(1000, 0x03))

	src := NewBinarySource(&buf, 500)
	want := []Sample{
		{Timestamp: 0, Channels: 0x00},
		{Timestamp: 1, Channels: 0x01},
		{Timestamp: 2, Channels: 0x03},
	}
	for i, w := range want {
		got, err := src.Next()
		if err != nil {
			t.Fatalf("record %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("record %d = %+v, want %+v", i, got, w)
		}
	}
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("final Next() err = %v, want io.EOF", err)
	}
}

func TestBinarySource_TruncatedRecord(t *testing.T) {
	data := encodeRecord(100, 0x00)
	src := NewBinarySource(bytes.NewReader(data[:5]), 1)

	_, err := src.Next()
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("second Next() err = %v, want io.EOF after error", err)
	}
}

func TestBinarySource_EmptyInput(t *testing.T) {
	src := NewBinarySource(bytes.NewReader(nil), 1)
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}
