// =============================================================================
// PayNow QR Generator - Converter Module
// =============================================================================
//
// This module contains the batch pipeline. It turns one recipient sheet
// (CSV or XLSX) into a set of PayNow QR images plus a manifest.
//
// CONVERSION PIPELINE:
//   1. Parse the sheet (format chosen by file extension)
//   2. Map sheet columns to recipients
//   3. Validate the recipients
//   4. Encode a PayNow payload per recipient
//   5. Render each payload as a PNG image
//   6. Write the manifest
//   7. Archive the processed sheet
//
// Steps 5 to 7 are skipped in dry-run mode.
//
// CONCURRENCY:
//   A Converter handles one file. The process command runs several
//   Converters concurrently; a Converter shares no mutable state.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/paynow-qr/internal/config"
	"github.com/ginjaninja78/paynow-qr/internal/csvparser"
	"github.com/ginjaninja78/paynow-qr/internal/logger"
	"github.com/ginjaninja78/paynow-qr/internal/manifest"
	"github.com/ginjaninja78/paynow-qr/internal/paynow"
	"github.com/ginjaninja78/paynow-qr/internal/qrimage"
	"github.com/ginjaninja78/paynow-qr/internal/types"
	"github.com/ginjaninja78/paynow-qr/internal/validation"
	"github.com/ginjaninja78/paynow-qr/internal/xlsxparser"
	"github.com/ginjaninja78/paynow-qr/pkg/utils"
)

// ErrUnsupportedFormat is returned for input files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// ManifestFile is the path to the manifest. Empty in dry-run mode or on failure.
	ManifestFile string

	// ArchivePath is where the input file was moved. Empty if not archived.
	ArchivePath string

	// Entries lists the generated codes in row order.
	Entries []manifest.Entry

	// Findings holds validation and encoding problems, warnings included.
	Findings []*validation.ValidationError

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of data rows read from the sheet.
	RowsProcessed int

	// CodesGenerated is the number of payloads encoded.
	CodesGenerated int

	// RowsSkipped is the number of rows dropped because of errors.
	// Only non-zero when ContinueOnError is set.
	RowsSkipped int

	// ValidationErrors is the number of fatal findings.
	ValidationErrors int

	// ValidationWarnings is the number of non-fatal findings.
	ValidationWarnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter processes a single recipient sheet.
type Converter struct {
	path      string
	config    *config.MainConfig
	renderer  *qrimage.Renderer
	files     *utils.FileManager
	validator *validation.Validator
	logger    *slog.Logger
	dryRun    bool
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - path: The input sheet (.csv or .xlsx).
//   - mainConfig: The application configuration.
//   - renderer: Renders payloads to PNG. May be nil in dry-run mode.
//   - log: Structured logger. nil discards log output.
func New(path string, mainConfig *config.MainConfig, renderer *qrimage.Renderer, log *slog.Logger) *Converter {
	if log == nil {
		log = logger.Discard()
	}

	return &Converter{
		path:      path,
		config:    mainConfig,
		renderer:  renderer,
		files:     utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir),
		validator: validation.NewValidator(),
		logger:    log.With(logger.File(path)),
	}
}

// WithDryRun makes Run stop after encoding: nothing is written or archived.
func (c *Converter) WithDryRun(dryRun bool) *Converter {
	c.dryRun = dryRun
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file. It stops early when ctx is done.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{FilePath: c.path}

	fail := func(err error) Result {
		result.Error = err
		result.Stats.ProcessingTime = time.Since(startTime)
		c.logger.Error("file failed", logger.Error(err), logger.Elapsed(startTime))
		return result
	}

	c.logger.Info("processing file")

	// =========================================================================
	// STEP 1: PARSE SHEET
	// =========================================================================

	sheet, err := c.readSheet()
	if err != nil {
		return fail(err)
	}

	result.Stats.RowsProcessed = len(sheet.Rows)
	c.logger.Debug("parsed sheet", logger.Count("rows", len(sheet.Rows)))

	// =========================================================================
	// STEP 2: MAP COLUMNS
	// =========================================================================

	recipients, err := ToRecipients(sheet, c.config.Columns)
	if err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================

	validationResult := c.validator.ValidateAll(recipients)
	result.Findings = validationResult.Errors
	result.Stats.ValidationErrors = validationResult.ErrorCount
	result.Stats.ValidationWarnings = validationResult.WarningCount

	for _, finding := range validationResult.Errors {
		c.logger.Warn("validation finding",
			logger.Row(finding.RowNumber),
			slog.String("severity", finding.Severity),
			slog.String("field", finding.Field),
			slog.String("rule", finding.Rule),
		)
	}

	if !validationResult.IsValid && !c.config.ContinueOnError {
		return fail(fmt.Errorf("validation failed with %d errors", validationResult.ErrorCount))
	}

	// =========================================================================
	// STEP 4: ENCODE PAYLOADS
	// =========================================================================

	for _, recipient := range recipients {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		if validationResult.InvalidRows[recipient.RowNumber] {
			result.Stats.RowsSkipped++
			continue
		}

		entry, err := c.encode(recipient)
		if err != nil {
			finding := &validation.ValidationError{
				Severity:  validation.SeverityError,
				Field:     "payload",
				Value:     recipient.Target,
				Rule:      "encode",
				Message:   err.Error(),
				RowNumber: recipient.RowNumber,
			}
			result.Findings = append(result.Findings, finding)
			result.Stats.ValidationErrors++

			if !c.config.ContinueOnError {
				return fail(fmt.Errorf("row %d: %w", recipient.RowNumber, err))
			}
			c.logger.Warn("row skipped", logger.Row(recipient.RowNumber), logger.Error(err))
			result.Stats.RowsSkipped++
			continue
		}

		result.Entries = append(result.Entries, entry)
	}

	result.Stats.CodesGenerated = len(result.Entries)

	if c.dryRun {
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		c.logger.Info("dry run complete", logger.Count("codes", result.Stats.CodesGenerated))
		return result
	}

	// =========================================================================
	// STEP 5: RENDER IMAGES
	// =========================================================================

	if err := c.files.EnsureDirectories(); err != nil {
		return fail(err)
	}

	if err := c.renderImages(ctx, result.Entries); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 6: WRITE MANIFEST
	// =========================================================================

	manifestPath := filepath.Join(c.config.OutputDir,
		baseName(c.path)+"_manifest"+manifest.Extension(c.config.ManifestFormat))

	err = manifest.Write(result.Entries, manifestPath, manifest.Options{
		Format: c.config.ManifestFormat,
		RunID:  uuid.New().String(),
		Source: c.path,
	})
	if err != nil {
		return fail(err)
	}

	result.ManifestFile = manifestPath

	// =========================================================================
	// STEP 7: ARCHIVE INPUT
	// =========================================================================

	archivePath, err := c.files.ArchiveInputFile(c.path)
	if err != nil {
		// The codes are already written; a failed archive is not fatal.
		c.logger.Warn("failed to archive input", logger.Error(err))
	} else if archivePath != c.path {
		result.ArchivePath = archivePath
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	c.logger.Info("file processed",
		logger.Count("codes", result.Stats.CodesGenerated),
		logger.Count("skipped", result.Stats.RowsSkipped),
		slog.String("manifest", manifestPath),
		logger.Elapsed(startTime),
	)

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readSheet parses the input file according to its extension.
func (c *Converter) readSheet() (*types.Sheet, error) {
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".csv":
		return csvparser.Parse(c.path, c.config.CSV)
	case ".xlsx":
		return xlsxparser.Parse(c.path, c.config.XLSX, c.config.CSV)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(c.path))
	}
}

// encode builds the payload for one recipient.
func (c *Converter) encode(r types.Recipient) (manifest.Entry, error) {
	request, err := BuildRequest(r, c.config.Merchant)
	if err != nil {
		return manifest.Entry{}, err
	}

	payload, err := request.Payload()
	if err != nil {
		return manifest.Entry{}, err
	}

	// The bill reference is only encoded in UEN mode.
	reference := ""
	if request.Mode == paynow.ModeUEN {
		reference = strings.TrimSpace(r.Reference)
	}

	return manifest.Entry{
		Row:       r.RowNumber,
		Mode:      string(request.Mode),
		Target:    paynow.NormalizeTarget(request.Mode, request.Target),
		Reference: reference,
		Name:      strings.TrimSpace(r.Name),
		Payload:   payload,
	}, nil
}

// renderImages writes one PNG per entry and records the file name on it.
func (c *Converter) renderImages(ctx context.Context, entries []manifest.Entry) error {
	if c.renderer == nil {
		return errors.New("no QR renderer configured")
	}

	file := baseName(c.path)

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := utils.GenerateOutputFileName(c.config.OutputNameFormat, map[string]string{
			"file": file,
			"row":  strconv.Itoa(entries[i].Row),
			"mode": entries[i].Mode,
		})

		if err := c.renderer.WriteFile(entries[i].Payload, filepath.Join(c.config.OutputDir, name)); err != nil {
			return fmt.Errorf("row %d: %w", entries[i].Row, err)
		}

		entries[i].Image = name
	}

	return nil
}

// =============================================================================
// COLUMN MAPPING
// =============================================================================

// ToRecipients maps sheet rows to recipients using the configured column
// names. Header matching is case-insensitive. The mode and target columns
// are required; reference and name are optional.
func ToRecipients(sheet *types.Sheet, columns config.ColumnMapping) ([]types.Recipient, error) {
	byLower := make(map[string]string, len(sheet.Headers))
	for _, h := range sheet.Headers {
		byLower[strings.ToLower(h)] = h
	}

	lookup := func(column string, required bool) (string, error) {
		header, ok := byLower[strings.ToLower(strings.TrimSpace(column))]
		if !ok && required {
			return "", fmt.Errorf("required column %q not found in headers %v", column, sheet.Headers)
		}
		return header, nil
	}

	modeCol, err := lookup(columns.Mode, true)
	if err != nil {
		return nil, err
	}
	targetCol, err := lookup(columns.Target, true)
	if err != nil {
		return nil, err
	}
	referenceCol, _ := lookup(columns.Reference, false)
	nameCol, _ := lookup(columns.Name, false)

	recipients := make([]types.Recipient, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		recipients = append(recipients, types.Recipient{
			RowNumber: row.Number,
			Mode:      row.Fields[modeCol],
			Target:    row.Fields[targetCol],
			Reference: field(row, referenceCol),
			Name:      field(row, nameCol),
		})
	}

	return recipients, nil
}

func field(row types.Row, header string) string {
	if header == "" {
		return ""
	}
	return row.Fields[header]
}

// BuildRequest turns a recipient into a PayNow request, filling the merchant
// defaults.
func BuildRequest(r types.Recipient, merchant config.MerchantSettings) (paynow.Request, error) {
	mode, err := paynow.ParseMode(r.Mode)
	if err != nil {
		return paynow.Request{}, err
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = merchant.Name
	}

	return paynow.Request{
		Mode:         mode,
		Target:       r.Target,
		Reference:    r.Reference,
		MerchantName: name,
		MerchantCity: merchant.City,
	}, nil
}

// baseName returns the file name without directory or extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
