// =============================================================================
// PayNow QR Generator - PayNow Payload Builder
// =============================================================================
//
// This package turns a PayNow destination (mobile number or UEN) into the
// field tree required by SGQR and encodes it with the EMV TLV encoder.
//
// PAYLOAD LAYOUT:
//
//   ID  Field                              Value
//   --  ---------------------------------  ---------------------------------
//   00  Payload Format Indicator           "01"
//   01  Point of Initiation Method         "11" (static)
//   26  Merchant Account Info Template
//       00  Globally Unique Identifier     "SG.PAYNOW"
//       01  Proxy type                     "0" mobile, "2" UEN
//       02  Proxy value                    phone number or UEN
//       03  Amount editable                "1"
//   52  Merchant Category Code             "0000"
//   53  Transaction Currency               "702" (SGD)
//   58  Country Code                       "SG"
//   59  Merchant Name                      configurable, default "NA"
//   60  Merchant City                      configurable, default "Singapore"
//   62  Additional Data Field Template
//       01  Bill Number                    UEN mode only, omitted when empty
//   63  CRC                                computed by emvqr.Encode
//
// =============================================================================

package paynow

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/paynow-qr/internal/emvqr"
)

// =============================================================================
// FIXED FIELD VALUES
// =============================================================================

const (
	PayloadFormatIndicator = "01"
	InitiationStatic       = "11"
	GloballyUniqueID       = "SG.PAYNOW"
	AmountEditable         = "1"
	MerchantCategoryCode   = "0000"
	CurrencySGD            = "702"
	CountryCode            = "SG"

	// DefaultMerchantName is used when the request has no merchant name.
	DefaultMerchantName = "NA"

	// DefaultMerchantCity is used when the request has no merchant city.
	DefaultMerchantCity = "Singapore"

	// CountryCallingCode is prefixed to local mobile numbers.
	CountryCallingCode = "+65"
)

// Top-level and template tags.
const (
	TagPayloadFormat   = "00"
	TagInitiation      = "01"
	TagMerchantAccount = "26"
	TagCategoryCode    = "52"
	TagCurrency        = "53"
	TagCountry         = "58"
	TagMerchantName    = "59"
	TagMerchantCity    = "60"
	TagAdditionalData  = "62"

	TagAccountGUID     = "00"
	TagAccountProxy    = "01"
	TagAccountValue    = "02"
	TagAccountEditable = "03"

	TagBillNumber = "01"
)

// localMobile matches an 8-digit Singapore number without country code.
var localMobile = regexp.MustCompile(`^[0-9]{8}$`)

// =============================================================================
// MODE
// =============================================================================

// Mode selects the PayNow proxy type.
type Mode string

const (
	ModePhone Mode = "phone"
	ModeUEN   Mode = "uen"
)

// ErrInvalidMode is returned by ParseMode for anything but phone or uen.
var ErrInvalidMode = errors.New("paynow: mode must be \"phone\" or \"uen\"")

// ParseMode parses a mode name case-insensitively. "mobile" is accepted as
// an alias for phone.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "phone", "mobile":
		return ModePhone, nil
	case "uen":
		return ModeUEN, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidMode, s)
	}
}

// ProxyType returns the value of sub-field 26.01 for m.
func (m Mode) ProxyType() string {
	if m == ModeUEN {
		return "2"
	}
	return "0"
}

// =============================================================================
// REQUEST
// =============================================================================

// Request describes one PayNow QR code.
type Request struct {
	// Mode selects phone or UEN.
	Mode Mode `yaml:"mode"`

	// Target is the phone number or UEN. Local 8-digit numbers are prefixed
	// with +65 in phone mode.
	Target string `yaml:"target"`

	// Reference is the bill number. It is only encoded in UEN mode.
	Reference string `yaml:"reference,omitempty"`

	// MerchantName defaults to DefaultMerchantName.
	MerchantName string `yaml:"name,omitempty"`

	// MerchantCity defaults to DefaultMerchantCity.
	MerchantCity string `yaml:"city,omitempty"`
}

// NormalizeTarget trims target and, in phone mode, prefixes an 8-digit
// local number with the country calling code.
func NormalizeTarget(mode Mode, target string) string {
	target = strings.TrimSpace(target)
	if mode == ModePhone && localMobile.MatchString(target) {
		return CountryCallingCode + target
	}
	return target
}

// Tree builds the field tree for r. It does not validate r; Payload does.
func (r Request) Tree() emvqr.Tree {
	name := r.MerchantName
	if name == "" {
		name = DefaultMerchantName
	}
	city := r.MerchantCity
	if city == "" {
		city = DefaultMerchantCity
	}

	reference := emvqr.Absent()
	if r.Mode == ModeUEN {
		reference = emvqr.Optional(strings.TrimSpace(r.Reference))
	}

	return emvqr.Tree{
		TagPayloadFormat: emvqr.Leaf(PayloadFormatIndicator),
		TagInitiation:    emvqr.Leaf(InitiationStatic),
		TagMerchantAccount: emvqr.Nested(emvqr.Tree{
			TagAccountGUID:     emvqr.Leaf(GloballyUniqueID),
			TagAccountProxy:    emvqr.Leaf(r.Mode.ProxyType()),
			TagAccountValue:    emvqr.Leaf(NormalizeTarget(r.Mode, r.Target)),
			TagAccountEditable: emvqr.Leaf(AmountEditable),
		}),
		TagCategoryCode: emvqr.Leaf(MerchantCategoryCode),
		TagCurrency:     emvqr.Leaf(CurrencySGD),
		TagCountry:      emvqr.Leaf(CountryCode),
		TagMerchantName: emvqr.Leaf(name),
		TagMerchantCity: emvqr.Leaf(city),
		TagAdditionalData: emvqr.Nested(emvqr.Tree{
			TagBillNumber: reference,
		}),
	}
}

// Validate checks the fields a caller controls.
func (r Request) Validate() error {
	if r.Mode != ModePhone && r.Mode != ModeUEN {
		return fmt.Errorf("%w: got %q", ErrInvalidMode, r.Mode)
	}
	if strings.TrimSpace(r.Target) == "" {
		return errors.New("paynow: target is required")
	}
	return nil
}

// Payload returns the complete QR payload string including the CRC field.
func (r Request) Payload() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	payload, err := emvqr.Encode(r.Tree())
	if err != nil {
		return "", fmt.Errorf("paynow: failed to encode payload: %w", err)
	}

	return payload, nil
}
