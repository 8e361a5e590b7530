package core

import (
	"bytes"
	"errors"
	"testing"
)

const testFingerprint = "900150983cd24fb0d6963f7d28e17f72"

func TestHeaderRoundTrip(t *testing.T) {
	h, err := NewHeader(testFingerprint, "linux-amd64")
	if err != nil {
		t.Fatalf("NewHeader failed: %v", err)
	}

	encoded := h.Encode()
	if len(encoded) != h.Len() {
		t.Errorf("Encode length = %d, Len() = %d", len(encoded), h.Len())
	}
	if !bytes.HasPrefix(encoded, Magic) {
		t.Error("encoded header should start with magic")
	}
	if !bytes.HasSuffix(encoded, []byte{0x00, 0x01, 0x02}) {
		t.Error("encoded header should end with the version marker")
	}

	// Payload bytes after the header must not confuse the parser
	container := append(encoded, []byte("\x00\x01\x02payload")...)
	parsed, err := ParseHeader(container)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if parsed.Platform != "linux-amd64" {
		t.Errorf("Platform = %q", parsed.Platform)
	}
	if parsed.IdentifierHex() != testFingerprint {
		t.Errorf("Identifier = %s", parsed.IdentifierHex())
	}
	if parsed.Len() != h.Len() {
		t.Errorf("parsed Len = %d, want %d", parsed.Len(), h.Len())
	}
}

func TestNewHeaderStripsNUL(t *testing.T) {
	h, err := NewHeader(testFingerprint, "bad\x00platform")
	if err != nil {
		t.Fatalf("NewHeader failed: %v", err)
	}
	if h.Platform != "badplatform" {
		t.Errorf("Platform = %q", h.Platform)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	good, _ := NewHeader(testFingerprint, "p")
	valid := good.Encode()

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 'X'

	noTerm := append([]byte(nil), valid...)
	noTerm[len(Magic)+IdentifierSize] = 0x7F

	noTrailer := append([]byte(nil), valid[:len(valid)-2]...)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", valid[:10]},
		{"bad magic", badMagic},
		{"missing identifier terminator", noTerm},
		{"missing trailer", noTrailer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHeader(tt.data); !errors.Is(err, ErrCorruptHeader) {
				t.Errorf("Expected ErrCorruptHeader, got %v", err)
			}
		})
	}

	if _, err := NewHeader("abc", "p"); !errors.Is(err, ErrCorruptHeader) {
		t.Errorf("NewHeader with short fingerprint: expected ErrCorruptHeader, got %v", err)
	}
}
