package emvqr

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrInvalidTag is matched by every *InvalidTagError.
	ErrInvalidTag = errors.New("emvqr: tag must be exactly two ASCII digits")

	// ErrValueTooLong is matched by every *ValueTooLongError.
	ErrValueTooLong = errors.New("emvqr: encoded value exceeds 99 characters")

	// ErrNonASCII is returned when a payload prefix contains non-ASCII text
	// and a checksum would have to be computed over it.
	ErrNonASCII = errors.New("emvqr: payload contains non-ASCII characters")

	// ErrMalformed is returned by the decoder for input that is not a valid
	// sequence of TLV records.
	ErrMalformed = errors.New("emvqr: malformed payload")

	// ErrChecksumMismatch is returned by Verify when the trailing CRC does not
	// match the payload.
	ErrChecksumMismatch = errors.New("emvqr: checksum mismatch")
)

// =============================================================================
// TYPED ERRORS
// =============================================================================

// InvalidTagError reports a tag that does not match ^[0-9]{2}$.
// It indicates a defect in how the tree was built, not bad user input.
type InvalidTagError struct {
	Tag string
}

// Error implements the error interface.
func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("emvqr: invalid tag %q: must be exactly two ASCII digits", e.Tag)
}

// Is makes errors.Is(err, ErrInvalidTag) succeed.
func (e *InvalidTagError) Is(target error) bool {
	return target == ErrInvalidTag
}

// ValueTooLongError reports a value whose encoded length does not fit the
// two-digit length field.
type ValueTooLongError struct {
	Tag    string
	Length int
}

// Error implements the error interface.
func (e *ValueTooLongError) Error() string {
	return fmt.Sprintf("emvqr: value of tag %s is %d characters long, maximum is %d", e.Tag, e.Length, MaxValueLength)
}

// Is makes errors.Is(err, ErrValueTooLong) succeed.
func (e *ValueTooLongError) Is(target error) bool {
	return target == ErrValueTooLong
}
