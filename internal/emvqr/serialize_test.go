package emvqr_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/paynow-qr/internal/emvqr"
)

func TestSerialize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tree emvqr.Tree
		want string
	}{
		{
			name: "empty tree",
			tree: emvqr.Tree{},
			want: "",
		},
		{
			name: "nil tree",
			tree: nil,
			want: "",
		},
		{
			name: "payload format and initiation method",
			tree: emvqr.Tree{"00": emvqr.Leaf("01"), "01": emvqr.Leaf("11")},
			want: "00020101020211",
		},
		{
			name: "sorted by tag regardless of construction",
			tree: emvqr.Tree{"58": emvqr.Leaf("SG"), "53": emvqr.Leaf("702"), "00": emvqr.Leaf("01")},
			want: "000201" + "5303702" + "5802SG",
		},
		{
			name: "absent field contributes nothing",
			tree: emvqr.Tree{"00": emvqr.Leaf("01"), "01": emvqr.Absent()},
			want: "000201",
		},
		{
			name: "zero value is absent",
			tree: emvqr.Tree{"00": emvqr.Leaf("01"), "62": {}},
			want: "000201",
		},
		{
			name: "empty leaf still emits",
			tree: emvqr.Tree{"59": emvqr.Leaf("")},
			want: "5900",
		},
		{
			name: "nested tree with all children absent emits zero length",
			tree: emvqr.Tree{"62": emvqr.Nested(emvqr.Tree{"01": emvqr.Absent()})},
			want: "6200",
		},
		{
			name: "nested template",
			tree: emvqr.Tree{
				"26": emvqr.Nested(emvqr.Tree{
					"00": emvqr.Leaf("SG.PAYNOW"),
					"01": emvqr.Leaf("2"),
					"02": emvqr.Leaf("201403121W"),
					"03": emvqr.Leaf("1"),
				}),
			},
			want: "2637" + "0009SG.PAYNOW" + "01012" + "0210201403121W" + "03011",
		},
		{
			name: "optional value",
			tree: emvqr.Tree{
				"62": emvqr.Nested(emvqr.Tree{"01": emvqr.Optional("INV-001")}),
				"63": emvqr.Optional(""),
			},
			want: "62110107INV-001",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := emvqr.Serialize(tt.tree)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializeOrderIndependent(t *testing.T) {
	t.Parallel()

	tags := []string{"60", "00", "59", "26", "01", "53", "52", "58"}

	build := func(order []string) emvqr.Tree {
		tree := emvqr.Tree{}
		for _, tag := range order {
			if tag == "26" {
				tree[tag] = emvqr.Nested(emvqr.Tree{"00": emvqr.Leaf("SG.PAYNOW")})
				continue
			}
			tree[tag] = emvqr.Leaf("v" + tag)
		}
		return tree
	}

	want, err := emvqr.Serialize(build(tags))
	require.NoError(t, err)

	for shift := 1; shift < len(tags); shift++ {
		rotated := append(append([]string{}, tags[shift:]...), tags[:shift]...)
		got, err := emvqr.Serialize(build(rotated))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSerializeInvalidTag(t *testing.T) {
	t.Parallel()

	invalid := []string{"", "0", "000", "a1", "1a", " 1", "1 ", "-1", "+1", "١٢", "0x"}

	for _, tag := range invalid {
		tag := tag
		t.Run(tag, func(t *testing.T) {
			t.Parallel()

			_, err := emvqr.Serialize(emvqr.Tree{tag: emvqr.Leaf("x")})
			require.Error(t, err)
			assert.ErrorIs(t, err, emvqr.ErrInvalidTag)

			var tagErr *emvqr.InvalidTagError
			require.True(t, errors.As(err, &tagErr))
			assert.Equal(t, tag, tagErr.Tag)
		})
	}
}

func TestSerializeInvalidTagOnAbsentValue(t *testing.T) {
	t.Parallel()

	_, err := emvqr.Serialize(emvqr.Tree{"1": emvqr.Absent()})
	assert.ErrorIs(t, err, emvqr.ErrInvalidTag)
}

func TestSerializeInvalidTagInNestedTree(t *testing.T) {
	t.Parallel()

	_, err := emvqr.Serialize(emvqr.Tree{
		"26": emvqr.Nested(emvqr.Tree{"ab": emvqr.Leaf("x")}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, emvqr.ErrInvalidTag)
	assert.Contains(t, err.Error(), "field 26")

	var tagErr *emvqr.InvalidTagError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, "ab", tagErr.Tag)
}

func TestSerializeValueLength(t *testing.T) {
	t.Parallel()

	t.Run("99 characters encodes as 99", func(t *testing.T) {
		t.Parallel()

		value := strings.Repeat("A", 99)
		got, err := emvqr.Serialize(emvqr.Tree{"59": emvqr.Leaf(value)})
		require.NoError(t, err)
		assert.Equal(t, "5999"+value, got)
	})

	t.Run("100 characters is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := emvqr.Serialize(emvqr.Tree{"59": emvqr.Leaf(strings.Repeat("A", 100))})
		require.ErrorIs(t, err, emvqr.ErrValueTooLong)

		var lenErr *emvqr.ValueTooLongError
		require.ErrorAs(t, err, &lenErr)
		assert.Equal(t, "59", lenErr.Tag)
		assert.Equal(t, 100, lenErr.Length)
	})

	t.Run("nested content over 99 is rejected at the parent", func(t *testing.T) {
		t.Parallel()

		_, err := emvqr.Serialize(emvqr.Tree{
			"26": emvqr.Nested(emvqr.Tree{
				"00": emvqr.Leaf(strings.Repeat("A", 60)),
				"01": emvqr.Leaf(strings.Repeat("B", 40)),
			}),
		})
		var lenErr *emvqr.ValueTooLongError
		require.ErrorAs(t, err, &lenErr)
		assert.Equal(t, "26", lenErr.Tag)
		assert.Equal(t, 64+44, lenErr.Length)
	})

	t.Run("single digit lengths are zero padded", func(t *testing.T) {
		t.Parallel()

		got, err := emvqr.Serialize(emvqr.Tree{"01": emvqr.Leaf("1")})
		require.NoError(t, err)
		assert.Equal(t, "01011", got)
	})
}

func TestTreePresent(t *testing.T) {
	t.Parallel()

	tree := emvqr.Tree{
		"00": emvqr.Leaf("01"),
		"01": emvqr.Absent(),
		"62": emvqr.Nested(emvqr.Tree{"01": emvqr.Absent(), "05": emvqr.Leaf("x")}),
	}

	assert.Equal(t, emvqr.Tree{
		"00": emvqr.Leaf("01"),
		"62": emvqr.Nested(emvqr.Tree{"05": emvqr.Leaf("x")}),
	}, tree.Present())
}

func TestValueAccessors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, emvqr.KindAbsent, emvqr.Value{}.Kind())
	assert.True(t, emvqr.Optional("").IsAbsent())
	assert.Equal(t, "702", emvqr.Leaf("702").Text())
	assert.Equal(t, emvqr.KindNested, emvqr.Nested(emvqr.Tree{}).Kind())
	assert.Equal(t, "leaf", emvqr.KindLeaf.String())
}
