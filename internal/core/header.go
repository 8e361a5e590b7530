package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"
)

// Magic opens every decrypted container
var Magic = []byte("VLTFS")

// IdentifierSize is the length of the hashed hardware identifier
const IdentifierSize = 16

var headerTrailer = []byte{0x00, 0x01, 0x02}

// Header is the fixed prefix of the decrypted container:
//
//	MAGIC(5) | identifier(16) | 0x00 | platform | 0x00 0x01 0x02
type Header struct {
	Identifier [IdentifierSize]byte
	Platform   string
}

// NewHeader builds a header from a hex fingerprint and a platform descriptor.
// NUL bytes are dropped from the descriptor since NUL terminates it.
func NewHeader(fingerprint, platform string) (*Header, error) {
	id, err := hex.DecodeString(fingerprint)
	if err != nil || len(id) != IdentifierSize {
		return nil, fmt.Errorf("%w: identifier must be %d hex-encoded bytes", ErrCorruptHeader, IdentifierSize)
	}
	h := &Header{Platform: strings.ReplaceAll(platform, "\x00", "")}
	copy(h.Identifier[:], id)
	return h, nil
}

// PlatformDescriptor describes the running platform
func PlatformDescriptor() string {
	return fmt.Sprintf("%s-%s-%s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// Len returns the encoded size, which is also the offset of the payload
func (h *Header) Len() int {
	return len(Magic) + IdentifierSize + 1 + len(h.Platform) + len(headerTrailer)
}

// IdentifierHex returns the identifier in the form stored in the metadata record
func (h *Header) IdentifierHex() string {
	return hex.EncodeToString(h.Identifier[:])
}

// Encode serializes the header
func (h *Header) Encode() []byte {
	buf := make([]byte, 0, h.Len())
	buf = append(buf, Magic...)
	buf = append(buf, h.Identifier[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, h.Platform...)
	buf = append(buf, headerTrailer...)
	return buf
}

// ParseHeader decodes the header at the start of a decrypted container
func ParseHeader(data []byte) (*Header, error) {
	fixed := len(Magic) + IdentifierSize + 1
	if len(data) < fixed+len(headerTrailer) {
		return nil, fmt.Errorf("%w: container too short", ErrCorruptHeader)
	}
	if !bytes.Equal(data[:len(Magic)], Magic) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptHeader)
	}
	if data[fixed-1] != 0x00 {
		return nil, fmt.Errorf("%w: missing identifier terminator", ErrCorruptHeader)
	}

	end := bytes.IndexByte(data[fixed:], 0x00)
	if end < 0 || !bytes.HasPrefix(data[fixed+end:], headerTrailer) {
		return nil, fmt.Errorf("%w: missing version marker", ErrCorruptHeader)
	}

	h := &Header{Platform: string(data[fixed : fixed+end])}
	copy(h.Identifier[:], data[len(Magic):len(Magic)+IdentifierSize])
	return h, nil
}
