package emvqr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// FORMAT CONSTANTS
// =============================================================================

const (
	// TagLength is the width of the tag sub-field.
	TagLength = 2

	// LengthFieldWidth is the width of the length sub-field.
	LengthFieldWidth = 2

	// MaxValueLength is the largest length expressible in LengthFieldWidth digits.
	MaxValueLength = 99
)

// =============================================================================
// SERIALIZATION
// =============================================================================

// Serialize encodes tree into the concatenated TLV string.
//
// ALGORITHM:
//  1. Sort the tags with a plain string comparison (not numeric).
//  2. Reject any tag that is not two ASCII digits, absent or not.
//  3. Skip Absent values.
//  4. Serialize Nested values first and use the result as the value text.
//  5. Emit tag + two-digit length + value.
//
// An empty tree yields "". A nested tree whose children are all absent is
// emitted as tag + "00".
//
// ERRORS:
//   - *InvalidTagError (errors.Is ErrInvalidTag)
//   - *ValueTooLongError (errors.Is ErrValueTooLong)
//
// Errors from nested trees are wrapped with the parent tag.
func Serialize(tree Tree) (string, error) {
	var b strings.Builder
	if err := serializeTo(&b, tree); err != nil {
		return "", err
	}
	return b.String(), nil
}

func serializeTo(b *strings.Builder, tree Tree) error {
	for _, tag := range sortedTags(tree) {
		if !ValidTag(tag) {
			return &InvalidTagError{Tag: tag}
		}

		value := tree[tag]

		var encoded string
		switch value.kind {
		case KindAbsent:
			continue
		case KindLeaf:
			encoded = value.text
		case KindNested:
			inner, err := Serialize(value.tree)
			if err != nil {
				return fmt.Errorf("field %s: %w", tag, err)
			}
			encoded = inner
		default:
			return fmt.Errorf("field %s: unknown value kind %d", tag, value.kind)
		}

		if err := writeRecord(b, tag, encoded); err != nil {
			return err
		}
	}

	return nil
}

// writeRecord appends one tag-length-value record.
func writeRecord(b *strings.Builder, tag, value string) error {
	length := utf8.RuneCountInString(value)
	if length > MaxValueLength {
		return &ValueTooLongError{Tag: tag, Length: length}
	}

	b.WriteString(tag)
	if length < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(length))
	b.WriteString(value)

	return nil
}

// sortedTags returns the keys of tree in byte-wise lexicographic order.
func sortedTags(tree Tree) []string {
	tags := make([]string, 0, len(tree))
	for tag := range tree {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ValidTag reports whether tag is exactly two ASCII digits.
func ValidTag(tag string) bool {
	return len(tag) == TagLength && isDigit(tag[0]) && isDigit(tag[1])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
