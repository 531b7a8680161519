package emvqr

import (
	"fmt"
	"strconv"
)

// TemplateFunc decides whether the value of tag is itself a TLV sequence.
type TemplateFunc func(tag string) bool

// IsTemplate reports whether tag is a template in EMV merchant-presented
// mode: merchant account information (26-51), additional data (62),
// merchant information language (64) and unreserved templates (80-99).
func IsTemplate(tag string) bool {
	if !ValidTag(tag) {
		return false
	}
	n, _ := strconv.Atoi(tag)
	switch {
	case n >= 26 && n <= 51:
		return true
	case n == 62, n == 64:
		return true
	case n >= 80:
		return true
	default:
		return false
	}
}

// Parse reads a sequence of TLV records produced by Serialize.
//
// Records whose tag satisfies isTemplate are parsed recursively into Nested
// values, every other record becomes a Leaf. A nil isTemplate parses a flat
// sequence. Lengths are counted in characters, as in Serialize.
//
// Parse(Serialize(t)) reproduces t.Present() for any valid t whose template
// tags match isTemplate.
func Parse(payload string, isTemplate TemplateFunc) (Tree, error) {
	return parseRunes([]rune(payload), 0, isTemplate)
}

func parseRunes(data []rune, base int, isTemplate TemplateFunc) (Tree, error) {
	tree := make(Tree)

	for pos := 0; pos < len(data); {
		if len(data)-pos < TagLength+LengthFieldWidth {
			return nil, fmt.Errorf("%w: truncated record header at offset %d", ErrMalformed, base+pos)
		}

		tag := string(data[pos : pos+TagLength])
		if !ValidTag(tag) {
			return nil, fmt.Errorf("%w: invalid tag %q at offset %d", ErrMalformed, tag, base+pos)
		}
		if _, dup := tree[tag]; dup {
			return nil, fmt.Errorf("%w: duplicate tag %s at offset %d", ErrMalformed, tag, base+pos)
		}

		lengthText := string(data[pos+TagLength : pos+TagLength+LengthFieldWidth])
		if !isDigit(lengthText[0]) || !isDigit(lengthText[1]) {
			return nil, fmt.Errorf("%w: invalid length %q for tag %s at offset %d", ErrMalformed, lengthText, tag, base+pos)
		}
		length, _ := strconv.Atoi(lengthText)

		start := pos + TagLength + LengthFieldWidth
		end := start + length
		if end > len(data) {
			return nil, fmt.Errorf("%w: value of tag %s at offset %d overruns input by %d characters", ErrMalformed, tag, base+pos, end-len(data))
		}

		if isTemplate != nil && isTemplate(tag) {
			inner, err := parseRunes(data[start:end], base+start, isTemplate)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", tag, err)
			}
			tree[tag] = Nested(inner)
		} else {
			tree[tag] = Leaf(string(data[start:end]))
		}

		pos = end
	}

	return tree, nil
}
