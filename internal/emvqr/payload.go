package emvqr

import (
	"fmt"

	"github.com/ginjaninja78/paynow-qr/internal/crc16"
)

// =============================================================================
// CHECKSUM FIELD
// =============================================================================

const (
	// ChecksumTag is the EMV tag of the CRC field.
	ChecksumTag = "63"

	// ChecksumHeader is the literal tag + length of the CRC field. The length
	// is fixed by the EMV specification; it is never computed.
	ChecksumHeader = ChecksumTag + "04"

	// checksumDigits is the number of hex digits carried by the CRC field.
	checksumDigits = 4

	// trailerLength is len(ChecksumHeader) + checksumDigits.
	trailerLength = len(ChecksumHeader) + checksumDigits
)

// =============================================================================
// ENCODING
// =============================================================================

// Encode serializes tree and terminates it with the CRC field.
//
// COMPOSITION:
//  1. prefix = Serialize(tree) + "6304"
//  2. crc    = CRC-16/CCITT-FALSE over the UTF-8 bytes of prefix
//  3. result = prefix + four upper-case hex digits of crc
//
// tree must not contain tag 63 itself. Payloads containing non-ASCII text
// are rejected with ErrNonASCII because scanners disagree on how to count
// and checksum them.
func Encode(tree Tree) (string, error) {
	if v, ok := tree[ChecksumTag]; ok && !v.IsAbsent() {
		return "", fmt.Errorf("emvqr: tag %s is reserved for the checksum", ChecksumTag)
	}

	body, err := Serialize(tree)
	if err != nil {
		return "", err
	}

	return AppendChecksum(body)
}

// AppendChecksum appends the CRC field to an already serialized body.
func AppendChecksum(body string) (string, error) {
	if i := firstNonASCII(body); i >= 0 {
		return "", fmt.Errorf("%w at byte offset %d", ErrNonASCII, i)
	}

	prefix := body + ChecksumHeader
	return prefix + crc16.Format(crc16.Checksum([]byte(prefix))), nil
}

// =============================================================================
// VERIFICATION AND DECODING
// =============================================================================

// Verify checks that payload ends with a CRC field whose value matches the
// checksum of everything before the four hex digits.
func Verify(payload string) error {
	if len(payload) < trailerLength {
		return fmt.Errorf("%w: payload shorter than the checksum field", ErrMalformed)
	}

	split := len(payload) - checksumDigits
	header := payload[split-len(ChecksumHeader) : split]
	if header != ChecksumHeader {
		return fmt.Errorf("%w: payload does not end with a %s checksum field", ErrMalformed, ChecksumHeader)
	}

	digits := payload[split:]
	if !isUpperHex(digits) {
		return fmt.Errorf("%w: checksum %q is not four upper-case hex digits", ErrMalformed, digits)
	}

	want := crc16.Format(crc16.Checksum([]byte(payload[:split])))
	if digits != want {
		return fmt.Errorf("%w: got %s, computed %s", ErrChecksumMismatch, digits, want)
	}

	return nil
}

// Decode verifies payload and parses it into a Tree using the EMV template
// rules (IsTemplate). The checksum field is not part of the returned tree.
func Decode(payload string) (Tree, error) {
	if err := Verify(payload); err != nil {
		return nil, err
	}
	return Parse(payload[:len(payload)-trailerLength], IsTemplate)
}

func firstNonASCII(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return i
		}
	}
	return -1
}

func isUpperHex(s string) bool {
	if len(s) != checksumDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
