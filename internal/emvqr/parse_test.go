package emvqr_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/paynow-qr/internal/emvqr"
)

func TestParseFlat(t *testing.T) {
	t.Parallel()

	tree, err := emvqr.Parse("00020101020211", nil)
	require.NoError(t, err)
	assert.Equal(t, emvqr.Tree{"00": emvqr.Leaf("01"), "01": emvqr.Leaf("11")}, tree)
}

func TestParseTemplateWithoutTemplateFunc(t *testing.T) {
	t.Parallel()

	tree, err := emvqr.Parse("62110107INV-001", nil)
	require.NoError(t, err)
	assert.Equal(t, emvqr.Leaf("0107INV-001"), tree["62"])
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "truncated header", payload: "000"},
		{name: "invalid tag", payload: "A00201"},
		{name: "non digit length", payload: "00X201"},
		{name: "value overruns input", payload: "000501"},
		{name: "duplicate tag", payload: "000201000201"},
		{name: "malformed nested record", payload: "2603ABC"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := emvqr.Parse(tt.payload, emvqr.IsTemplate)
			assert.ErrorIs(t, err, emvqr.ErrMalformed)
		})
	}
}

func TestIsTemplate(t *testing.T) {
	t.Parallel()

	for _, tag := range []string{"26", "40", "51", "62", "64", "80", "99"} {
		assert.True(t, emvqr.IsTemplate(tag), tag)
	}
	for _, tag := range []string{"00", "01", "25", "52", "59", "60", "63", "65", "79", "a1", "100"} {
		assert.False(t, emvqr.IsTemplate(tag), tag)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .-+"

	randomText := func(max int) string {
		n := rng.Intn(max + 1)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		return b.String()
	}

	randomLeafTag := func() string {
		for {
			tag := fmt.Sprintf("%02d", rng.Intn(100))
			if !emvqr.IsTemplate(tag) {
				return tag
			}
		}
	}

	for i := 0; i < 200; i++ {
		tree := emvqr.Tree{}
		for j := rng.Intn(6); j > 0; j-- {
			switch rng.Intn(3) {
			case 0:
				tree[randomLeafTag()] = emvqr.Leaf(randomText(40))
			case 1:
				tree[randomLeafTag()] = emvqr.Absent()
			default:
				child := emvqr.Tree{}
				for k := rng.Intn(3); k > 0; k-- {
					child[randomLeafTag()] = emvqr.Optional(randomText(15))
				}
				tree["26"] = emvqr.Nested(child)
			}
		}

		encoded, err := emvqr.Serialize(tree)
		require.NoError(t, err)

		decoded, err := emvqr.Parse(encoded, emvqr.IsTemplate)
		require.NoError(t, err, encoded)
		assert.Equal(t, tree.Present(), decoded, encoded)
	}
}
