// =============================================================================
// PayNow QR Generator - CSV Parser Module
// =============================================================================
//
// This module parses CSV recipient sheets for batch processing. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Multi-line headers
//   - Custom data start rows
//   - Quoted fields
//
// A typical sheet looks like:
//
//   mode,target,reference,name
//   phone,91234567,,Jane Tan
//   uen,201403121W,INV-001,ACME PTE LTD
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/paynow-qr/internal/config"
	"github.com/ginjaninja78/paynow-qr/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed sheet.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings from the configuration.
//
// RETURNS:
//   - A pointer to the Sheet containing headers and data rows.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*types.Sheet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sheet, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}

	sheet.SourceFile = filePath
	return sheet, nil
}

// ParseReader parses CSV content from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*types.Sheet, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers, err := ExtractHeaders(allRows, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	return &types.Sheet{
		Headers: headers,
		Rows:    ExtractDataRows(allRows, headers, dataStartIndex(settings)),
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow a variable number of fields per row; short rows are padded.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// dataStartIndex converts the 1-indexed DataStartRow to a slice index.
func dataStartIndex(settings config.CSVSettings) int {
	if settings.DataStartRow <= 0 {
		return settings.HeaderRows
	}
	return settings.DataStartRow - 1
}

// ExtractHeaders extracts and merges the first headerRows rows.
//
// MULTI-LINE HEADER HANDLING:
//   Non-empty values of each column are joined with a space.
//
//   Row 1: "Payee", "",       "Bill"
//   Row 2: "Mode",  "Target", "Number"
//   Result: "Payee Mode", "Target", "Bill Number"
//
// Empty headers become "Column_N". The function is shared with xlsxparser.
func ExtractHeaders(allRows [][]string, headerRows int) ([]string, error) {
	if headerRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}

	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if headerRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string

		for row := 0; row < headerRows; row++ {
			if col < len(allRows[row]) {
				value := strings.TrimSpace(allRows[row][col])
				if value != "" {
					parts = append(parts, value)
				}
			}
		}

		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// ExtractDataRows converts rows from startIndex onward into header -> value
// maps, skipping empty rows. Row numbers are 1-indexed file positions.
func ExtractDataRows(allRows [][]string, headers []string, startIndex int) []types.Row {
	if startIndex < 0 || startIndex >= len(allRows) {
		return []types.Row{}
	}

	dataRows := make([]types.Row, 0, len(allRows)-startIndex)

	for rowIndex := startIndex; rowIndex < len(allRows); rowIndex++ {
		row := allRows[rowIndex]

		if isRowEmpty(row) {
			continue
		}

		fields := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				fields[header] = strings.TrimSpace(row[colIndex])
			} else {
				fields[header] = ""
			}
		}

		dataRows = append(dataRows, types.Row{Number: rowIndex + 1, Fields: fields})
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
