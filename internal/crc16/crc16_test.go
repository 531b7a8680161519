package crc16_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/paynow-qr/internal/crc16"
)

func TestChecksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  uint16
	}{
		{name: "empty input returns initial register", input: "", want: 0xFFFF},
		{name: "standard check value", input: "123456789", want: 0x29B1},
		{name: "payload prefix with checksum header", input: "0002010102116304", want: 0xAD0A},
		{
			name:  "paynow phone payload",
			input: "00020101021126380009SG.PAYNOW010100211+6591234567030115204000053037025802SG5902NA6009Singapore62006304",
			want:  0x0D51,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, crc16.Checksum([]byte(tt.input)))
		})
	}
}

func TestChecksumIsDeterministic(t *testing.T) {
	t.Parallel()

	data := []byte("00020101021163045")
	first := crc16.Checksum(data)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, crc16.Checksum(data))
	}
}

func TestUpdateMatchesChecksum(t *testing.T) {
	t.Parallel()

	data := []byte("00020101021126370009SG.PAYNOW")
	for split := 0; split <= len(data); split++ {
		partial := crc16.Update(crc16.Checksum(data[:split]), data[split:])
		assert.Equal(t, crc16.Checksum(data), partial, "split at %d", split)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0000", crc16.Format(0))
	assert.Equal(t, "000A", crc16.Format(0x000A))
	assert.Equal(t, "0D51", crc16.Format(0x0D51))
	assert.Equal(t, "FFFF", crc16.Format(crc16.Checksum(nil)))
	assert.Equal(t, "29B1", crc16.Format(0x29b1))
}
