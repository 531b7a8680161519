// =============================================================================
// PayNow QR Generator - XLSX Parser Module
// =============================================================================
//
// This module reads recipient sheets saved as Excel workbooks. The layout is
// the same as the CSV format: one header row followed by one recipient per
// row.
//
//   | Column A | Column B   | Column C  | Column D     |
//   |----------|------------|-----------|--------------|
//   | mode     | target     | reference | name         |
//   | phone    | 91234567   |           | Jane Tan     |
//   | uen      | 201403121W | INV-001   | ACME PTE LTD |
//
// Sheets whose names start with "_" are treated as notes and ignored by
// ParseAll.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/paynow-qr/internal/config"
	"github.com/ginjaninja78/paynow-qr/internal/csvparser"
	"github.com/ginjaninja78/paynow-qr/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads one sheet of an XLSX workbook.
//
// PARAMETERS:
//   - filePath: The path to the XLSX file.
//   - settings: The XLSX settings; an empty Sheet selects the first sheet.
//   - csvSettings: Header row and data start row settings, shared with CSV.
//
// RETURNS:
//   - A pointer to the Sheet containing headers and data rows.
//   - An error if the file cannot be read or the sheet does not exist.
func Parse(filePath string, settings config.XLSXSettings, csvSettings config.CSVSettings) (*types.Sheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := settings.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet, err := parseSheet(f, sheetName, csvSettings)
	if err != nil {
		return nil, fmt.Errorf("error parsing sheet '%s': %w", sheetName, err)
	}

	sheet.SourceFile = filePath
	return sheet, nil
}

// ParseAll reads every visible sheet of a workbook, keyed by sheet name.
func ParseAll(filePath string, csvSettings config.CSVSettings) (map[string]*types.Sheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]*types.Sheet)

	for _, sheetName := range f.GetSheetList() {
		if strings.HasPrefix(sheetName, "_") {
			continue
		}

		sheet, err := parseSheet(f, sheetName, csvSettings)
		if err != nil {
			return nil, fmt.Errorf("error parsing sheet '%s': %w", sheetName, err)
		}

		sheet.SourceFile = filePath
		sheets[sheetName] = sheet
	}

	return sheets, nil
}

// parseSheet parses a single sheet from an open workbook.
func parseSheet(f *excelize.File, sheetName string, csvSettings config.CSVSettings) (*types.Sheet, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	headers, err := csvparser.ExtractHeaders(rows, csvSettings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	start := csvSettings.DataStartRow - 1
	if csvSettings.DataStartRow <= 0 {
		start = csvSettings.HeaderRows
	}

	return &types.Sheet{
		Headers: headers,
		Rows:    csvparser.ExtractDataRows(rows, headers, start),
	}, nil
}
