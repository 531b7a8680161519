package paynow_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/paynow-qr/internal/emvqr"
	"github.com/ginjaninja78/paynow-qr/internal/paynow"
)

func TestPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  paynow.Request
		want string
	}{
		{
			name: "local phone number gets country code",
			req:  paynow.Request{Mode: paynow.ModePhone, Target: "91234567"},
			want: "00020101021126380009SG.PAYNOW010100211+6591234567030115204000053037025802SG5902NA6009Singapore620063040D51",
		},
		{
			name: "reference ignored in phone mode",
			req:  paynow.Request{Mode: paynow.ModePhone, Target: "91234567", Reference: "INV-001"},
			want: "00020101021126380009SG.PAYNOW010100211+6591234567030115204000053037025802SG5902NA6009Singapore620063040D51",
		},
		{
			name: "uen with bill number",
			req:  paynow.Request{Mode: paynow.ModeUEN, Target: "201403121W", Reference: "INV-001"},
			want: "00020101021126370009SG.PAYNOW010120210201403121W030115204000053037025802SG5902NA6009Singapore62110107INV-00163040C26",
		},
		{
			name: "uen without bill number",
			req:  paynow.Request{Mode: paynow.ModeUEN, Target: "201403121W"},
			want: "00020101021126370009SG.PAYNOW010120210201403121W030115204000053037025802SG5902NA6009Singapore620063047DEA",
		},
		{
			name: "merchant name and full phone number",
			req:  paynow.Request{Mode: paynow.ModePhone, Target: "+6591234567", MerchantName: "ACME PTE LTD"},
			want: "00020101021126380009SG.PAYNOW010100211+6591234567030115204000053037025802SG5912ACME PTE LTD6009Singapore62006304ACA7",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.req.Payload()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, emvqr.Verify(got))
		})
	}
}

func TestPayloadDecodesBack(t *testing.T) {
	t.Parallel()

	req := paynow.Request{Mode: paynow.ModeUEN, Target: "53312345K", Reference: "R1", MerchantCity: "SINGAPORE"}
	payload, err := req.Payload()
	require.NoError(t, err)

	tree, err := emvqr.Decode(payload)
	require.NoError(t, err)

	account := tree[paynow.TagMerchantAccount].Tree()
	assert.Equal(t, "2", account[paynow.TagAccountProxy].Text())
	assert.Equal(t, "53312345K", account[paynow.TagAccountValue].Text())
	assert.Equal(t, "R1", tree[paynow.TagAdditionalData].Tree()[paynow.TagBillNumber].Text())
	assert.Equal(t, "SINGAPORE", tree[paynow.TagMerchantCity].Text())
}

func TestPayloadErrors(t *testing.T) {
	t.Parallel()

	_, err := paynow.Request{Mode: "bank", Target: "123"}.Payload()
	assert.ErrorIs(t, err, paynow.ErrInvalidMode)

	_, err = paynow.Request{Mode: paynow.ModeUEN, Target: "  "}.Payload()
	assert.Error(t, err)

	_, err = paynow.Request{Mode: paynow.ModeUEN, Target: "201403121W", Reference: strings.Repeat("X", 96)}.Payload()
	assert.ErrorIs(t, err, emvqr.ErrValueTooLong)

	_, err = paynow.Request{Mode: paynow.ModePhone, Target: "91234567", MerchantName: "Café"}.Payload()
	assert.ErrorIs(t, err, emvqr.ErrNonASCII)
}

func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode   paynow.Mode
		target string
		want   string
	}{
		{paynow.ModePhone, "91234567", "+6591234567"},
		{paynow.ModePhone, " 91234567 ", "+6591234567"},
		{paynow.ModePhone, "+6591234567", "+6591234567"},
		{paynow.ModePhone, "9123456", "9123456"},
		{paynow.ModePhone, "912345678", "912345678"},
		{paynow.ModeUEN, "12345678", "12345678"},
		{paynow.ModeUEN, "201403121W", "201403121W"},
	}

	for _, tt := range tests {
		tt := tt
		assert.Equal(t, tt.want, paynow.NormalizeTarget(tt.mode, tt.target), "%s %q", tt.mode, tt.target)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]paynow.Mode{
		"phone":  paynow.ModePhone,
		"PHONE":  paynow.ModePhone,
		"mobile": paynow.ModePhone,
		" uen ":  paynow.ModeUEN,
		"UEN":    paynow.ModeUEN,
	} {
		got, err := paynow.ParseMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := paynow.ParseMode("nric")
	assert.ErrorIs(t, err, paynow.ErrInvalidMode)
}

func TestTreeProxyType(t *testing.T) {
	t.Parallel()

	phone := paynow.Request{Mode: paynow.ModePhone, Target: "91234567"}.Tree()
	uen := paynow.Request{Mode: paynow.ModeUEN, Target: "201403121W"}.Tree()

	assert.Equal(t, "0", phone[paynow.TagMerchantAccount].Tree()[paynow.TagAccountProxy].Text())
	assert.Equal(t, "2", uen[paynow.TagMerchantAccount].Tree()[paynow.TagAccountProxy].Text())
	assert.True(t, phone[paynow.TagAdditionalData].Tree()[paynow.TagBillNumber].IsAbsent())
}
