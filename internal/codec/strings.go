// Package codec decodes the composite values stored in save files: length
// prefixed strings, raw screenshots and plugin lists.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/ossyrian/gbsave/internal/stream"
)

// LengthPrefix selects how a string's length is stored.
type LengthPrefix int

const (
	// BString has a one byte length and no terminator.
	BString LengthPrefix = iota
	// BZString has a one byte length that counts a trailing NUL.
	BZString
	// WString has a two byte length and no terminator.
	WString
)

func (p LengthPrefix) String() string {
	switch p {
	case BString:
		return "bstring"
	case BZString:
		return "bzstring"
	case WString:
		return "wstring"
	default:
		return fmt.Sprintf("LengthPrefix(%d)", int(p))
	}
}

// Charset selects how string payload bytes are turned into text.
type Charset int

const (
	UTF8 Charset = iota
	// Local8Bit is the Western Windows code page the older games write.
	Local8Bit
)

// StringEncoding describes every string in one part of a save.
type StringEncoding struct {
	Prefix  LengthPrefix
	Charset Charset
	// FieldMarkers adds one marker byte after the length and one after
	// the payload.
	FieldMarkers bool
}

// ReadString decodes one string from src.
//
// A BZString length counts its terminator, so a length of L consumes L
// payload bytes and yields at most L-1 characters. Payloads are cut at the
// first NUL.
func ReadString(src stream.Source, enc StringEncoding) (string, error) {
	var length int
	switch enc.Prefix {
	case BString, BZString:
		var b [1]byte
		if err := src.ReadFull(b[:]); err != nil {
			return "", fmt.Errorf("failed to read string length: %w", err)
		}
		length = int(b[0])
	case WString:
		var b [2]byte
		if err := src.ReadFull(b[:]); err != nil {
			return "", fmt.Errorf("failed to read string length: %w", err)
		}
		length = int(binary.LittleEndian.Uint16(b[:]))
	default:
		return "", fmt.Errorf("unknown string length prefix: %d", enc.Prefix)
	}

	if enc.FieldMarkers {
		if err := src.Skip(1); err != nil {
			return "", fmt.Errorf("failed to skip string marker: %w", err)
		}
	}

	var payload []byte
	if length > 0 {
		payload = make([]byte, length)
		if err := src.ReadFull(payload); err != nil {
			return "", fmt.Errorf("failed to read %d byte string: %w", length, err)
		}
	}

	if enc.FieldMarkers {
		if err := src.Skip(1); err != nil {
			return "", fmt.Errorf("failed to skip string marker: %w", err)
		}
	}

	return decodePayload(payload, enc.Charset)
}

// SkipString consumes one string without decoding it.
func SkipString(src stream.Source, enc StringEncoding) error {
	_, err := ReadString(src, enc)
	return err
}

func decodePayload(payload []byte, cs Charset) (string, error) {
	if i := bytes.IndexByte(payload, 0); i >= 0 {
		payload = payload[:i]
	}
	if len(payload) == 0 {
		return "", nil
	}

	switch cs {
	case UTF8:
		return strings.ToValidUTF8(string(payload), "\uFFFD"), nil
	case Local8Bit:
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(payload)
		if err != nil {
			return "", fmt.Errorf("failed to decode windows-1252 string: %w", err)
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unknown charset: %d", cs)
	}
}
