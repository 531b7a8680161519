// =============================================================================
// PayNow QR Generator - EMV QR Field Tree
// =============================================================================
//
// This package implements the tag-length-value (TLV) format used by EMVCo
// merchant-presented QR codes (and SGQR). A payload is a flat string of
// records:
//
//   +-----+--------+-------------------+
//   | tag | length | value             |
//   | 2   | 2      | 0..99 characters  |
//   +-----+--------+-------------------+
//
// Some records (templates) carry a nested sequence of records as their
// value, e.g. the Merchant Account Information template under tag 26:
//
//   26 38 [00 09 SG.PAYNOW][01 01 0][02 11 +6591234567][03 01 1]
//
// The caller describes a payload as a Tree and the package turns it into
// the wire string, optionally followed by the CRC field (tag 63).
//
// =============================================================================

package emvqr

// =============================================================================
// VALUE KINDS
// =============================================================================

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindAbsent means the field is omitted from the output entirely.
	// It is the zero value so that an unset Value is never emitted.
	KindAbsent Kind = iota

	// KindLeaf means the field carries plain text.
	KindLeaf

	// KindNested means the field carries another Tree (a template).
	KindNested
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindLeaf:
		return "leaf"
	case KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// =============================================================================
// VALUE
// =============================================================================

// Value is a field value: Leaf(text), Nested(Tree) or Absent.
// The zero Value is Absent.
type Value struct {
	kind Kind
	text string
	tree Tree
}

// Leaf returns a Value carrying text. Numeric codes are passed already
// formatted as decimal text, e.g. Leaf("702").
func Leaf(text string) Value {
	return Value{kind: KindLeaf, text: text}
}

// Nested returns a Value carrying a sub-tree.
func Nested(tree Tree) Value {
	return Value{kind: KindNested, tree: tree}
}

// Absent returns a Value that is skipped during serialization.
func Absent() Value {
	return Value{}
}

// Optional returns Absent for the empty string and Leaf(text) otherwise.
// Use it for optional references such as a bill number.
func Optional(text string) Value {
	if text == "" {
		return Absent()
	}
	return Leaf(text)
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is omitted from output.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the leaf text. It is empty for non-leaf values.
func (v Value) Text() string { return v.text }

// Tree returns the nested tree. It is nil for non-nested values.
func (v Value) Tree() Tree { return v.tree }

// =============================================================================
// TREE
// =============================================================================

// Tree maps two-digit tags to values. Insertion order is irrelevant:
// serialization always sorts by tag.
type Tree map[string]Value

// Present returns a copy of t without Absent entries, recursing into nested
// trees. Two trees that serialize identically have equal Present forms
// (except for nested trees whose children are all absent, which stay as
// empty trees because they still emit a zero-length record).
func (t Tree) Present() Tree {
	out := make(Tree, len(t))
	for tag, v := range t {
		switch v.kind {
		case KindLeaf:
			out[tag] = v
		case KindNested:
			out[tag] = Nested(v.tree.Present())
		}
	}
	return out
}
