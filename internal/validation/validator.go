// =============================================================================
// PayNow QR Generator - Validation Engine
// =============================================================================
//
// This module validates recipient rows before they are encoded. It checks
// structure only: the EMV encoder enforces the TLV limits, and the real
// business meaning of a UEN or phone number is left to the banks.
//
// RULES:
//   error   - mode is not phone/uen
//   error   - target is empty
//   error   - target or name contains non-ASCII text
//   error   - reference contains non-ASCII text (uen mode only)
//   warning - reference given in phone mode (it is not encoded)
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first failure
//   - Each error includes the source row, field and value
//   - Warnings never block encoding
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ginjaninja78/paynow-qr/internal/paynow"
	"github.com/ginjaninja78/paynow-qr/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the recipient field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the source row number.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// IsFatal reports whether the finding blocks encoding.
func (e *ValidationError) IsFatal() bool {
	return e.Severity == SeverityError
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RowsValidated is the number of recipients checked.
	RowsValidated int

	// InvalidRows holds the row numbers with at least one fatal error.
	InvalidRows map[int]bool
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks recipients.
type Validator struct {
	options ValidationOptions
}

// ValidationOptions tunes the validator.
type ValidationOptions struct {
	// StrictReference turns "reference in phone mode" into an error.
	StrictReference bool
}

// NewValidator returns a Validator with default options.
func NewValidator() *Validator {
	return NewValidatorWithOptions(ValidationOptions{})
}

// NewValidatorWithOptions returns a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// ValidateAll validates every recipient and aggregates the findings.
func (v *Validator) ValidateAll(recipients []types.Recipient) *ValidationResult {
	result := &ValidationResult{
		IsValid:     true,
		InvalidRows: make(map[int]bool),
	}

	for i := range recipients {
		findings := v.ValidateRecipient(&recipients[i])
		result.RowsValidated++

		for _, f := range findings {
			result.Errors = append(result.Errors, f)
			if f.IsFatal() {
				result.ErrorCount++
				result.IsValid = false
				result.InvalidRows[recipients[i].RowNumber] = true
			} else {
				result.WarningCount++
			}
		}
	}

	return result
}

// ValidateRecipient validates a single recipient.
func (v *Validator) ValidateRecipient(r *types.Recipient) []*ValidationError {
	var errs []*ValidationError

	add := func(severity, field, value, rule, message string) {
		errs = append(errs, &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			RowNumber: r.RowNumber,
		})
	}

	mode, err := paynow.ParseMode(r.Mode)
	if err != nil {
		add(SeverityError, "mode", r.Mode, "mode", "mode must be phone or uen")
	}

	if strings.TrimSpace(r.Target) == "" {
		add(SeverityError, "target", r.Target, "required", "target is required")
	}

	fields := []struct{ name, value string }{
		{"target", r.Target},
		{"name", r.Name},
	}
	if err == nil && mode == paynow.ModeUEN {
		fields = append(fields, struct{ name, value string }{"reference", r.Reference})
	}
	for _, field := range fields {
		if !isASCII(field.value) {
			add(SeverityError, field.name, field.value, "ascii", "only ASCII characters can be encoded")
		}
	}

	if err == nil && mode == paynow.ModePhone && strings.TrimSpace(r.Reference) != "" {
		severity := SeverityWarning
		if v.options.StrictReference {
			severity = SeverityError
		}
		add(severity, "reference", r.Reference, "reference_mode", "reference is only encoded in uen mode")
	}

	return errs
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors renders findings one per line, suitable for an error log.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Validation found %d issue(s):\n", len(errors))
	for i, e := range errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, e.Error())
	}
	return b.String()
}
