// =============================================================================
// PayNow QR Generator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser / xlsxparser (produce Sheet)
//   - validation             (checks Recipient)
//   - converter              (maps Sheet rows to Recipient and encodes them)
//
// =============================================================================

package types

// =============================================================================
// SHEET TYPES
// =============================================================================

// Sheet is a parsed recipient sheet, independent of its file format.
type Sheet struct {
	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []Row

	// SourceFile is the path of the file the sheet was read from.
	SourceFile string
}

// Row is a single data row of a Sheet.
type Row struct {
	// Number is the 1-indexed row number in the source file.
	Number int

	// Fields maps header to trimmed cell value.
	Fields map[string]string
}

// =============================================================================
// RECIPIENT TYPES
// =============================================================================

// Recipient is one PayNow QR code to generate, as read from a sheet.
// Values are raw text; validation decides whether they are usable.
type Recipient struct {
	// RowNumber is the row in the source file. Useful for error reporting.
	RowNumber int

	// Mode is the raw mode text ("phone" or "uen").
	Mode string

	// Target is the phone number or UEN.
	Target string

	// Reference is the optional bill number (UEN mode only).
	Reference string

	// Name is the optional merchant name printed in field 59.
	Name string
}
