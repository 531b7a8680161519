// =============================================================================
// PayNow QR Generator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which batch-generates PayNow QR
// codes from every recipient sheet in the input directory.
//
// COMMAND USAGE:
//   paynow process [flags]
//
// FLAGS:
//   --dry-run : Validate and encode without writing images, manifests or logs.
//               Validation findings are printed instead of logged to a file.
//   --file    : Process only this file instead of scanning the input directory
//
// PROCESSING PIPELINE:
//   1. Discover .csv and .xlsx files in the input directory
//   2. Run a converter per file, at most max_concurrency at a time
//   3. Collect results and print a summary
//   4. Write the error log and processing summary to the output directory
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/paynow-qr/internal/converter"
	"github.com/ginjaninja78/paynow-qr/internal/logger"
	"github.com/ginjaninja78/paynow-qr/internal/qrimage"
	"github.com/ginjaninja78/paynow-qr/internal/validation"
	"github.com/ginjaninja78/paynow-qr/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun encodes without writing anything.
var dryRun bool

// filePath restricts processing to a single file.
var filePath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate QR codes for every recipient sheet in the input directory",
	Long: `The process command scans the input directory for CSV and XLSX recipient
sheets and generates one PayNow QR image per row.

Files are processed concurrently, up to max_concurrency at a time. Errors in
one file do not affect the others.

On successful processing:
  - PNG images and a manifest are placed in the output directory
  - The original sheet is moved to the input archive

On error:
  - An error log is created in the output directory
  - The original sheet remains in the input directory`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runProcess(ctx, cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and encode without writing output files")
	processCmd.Flags().StringVar(&filePath, "file", "", "Process only this file")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(appConfig.InputDir, appConfig.OutputDir, appConfig.InputArchiveDir)

	var inputFiles []string
	if filePath != "" {
		if !utils.FileExists(filePath) {
			return fmt.Errorf("input file not found: %s", filePath)
		}
		inputFiles = []string{filePath}
	} else {
		if !dryRun {
			if err := files.EnsureDirectories(); err != nil {
				return err
			}
		}

		found, err := files.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
		inputFiles = found
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No recipient sheets found in the input directory.")
		return nil
	}

	appLogger.Info("discovered input files", logger.Count("files", len(inputFiles)))

	var renderer *qrimage.Renderer
	if !dryRun {
		r, err := newRenderer(appConfig.QR)
		if err != nil {
			return err
		}
		renderer = r
	}

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := processFiles(ctx, inputFiles, appConfig.MaxConcurrency, func(path string) *converter.Converter {
		return converter.New(path, appConfig, renderer, appLogger).WithDryRun(dryRun)
	})

	// =========================================================================
	// STEP 3: COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputFiles),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		summary.TotalRows += result.Stats.RowsProcessed
		summary.ValidationErrors += result.Stats.ValidationErrors

		for _, f := range result.Findings {
			errorEntries = append(errorEntries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     name,
				ErrorType:    f.Severity,
				ErrorMessage: f.Message,
				RowNumber:    f.RowNumber,
				FieldName:    f.Field,
				FieldValue:   f.Value,
			})
		}

		if result.Success {
			summary.SuccessfulFiles++
			summary.CodesGenerated += result.Stats.CodesGenerated
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:    result.FilePath,
				ManifestFile: result.ManifestFile,
				ArchivePath:  result.ArchivePath,
				Rows:         result.Stats.RowsProcessed,
				Codes:        result.Stats.CodesGenerated,
				ProcessTime:  result.Stats.ProcessingTime,
			})
			fmt.Fprintf(out, "  OK   %s: %d code(s)\n", name, result.Stats.CodesGenerated)
			printFindings(out, result)
			continue
		}

		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
		})
		errorEntries = append(errorEntries, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     name,
			ErrorType:    "file",
			ErrorMessage: result.Error.Error(),
		})
		fmt.Fprintf(out, "  FAIL %s: %v\n", name, result.Error)
		printFindings(out, result)
	}

	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 4: PRINT SUMMARY AND WRITE LOGS
	// =========================================================================

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Failed:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Codes generated: %d\n", summary.CodesGenerated)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if dryRun {
		return ctx.Err()
	}

	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	if logPath, err := utils.WriteErrorLog(errorEntries, appConfig.OutputDir); err != nil {
		appLogger.Error("failed to write error log", logger.Error(err))
	} else if logPath != "" {
		fmt.Fprintf(out, "Error log:       %s\n", logPath)
	}

	if _, err := utils.WriteSummaryLog(summary, appConfig.OutputDir); err != nil {
		appLogger.Error("failed to write summary", logger.Error(err))
	}

	return ctx.Err()
}

// printFindings writes the validation report of a dry run, indented under
// the file's status line.
func printFindings(out io.Writer, result converter.Result) {
	if !dryRun || len(result.Findings) == 0 {
		return
	}
	report := strings.TrimRight(validation.FormatErrors(result.Findings), "\n")
	for _, line := range strings.Split(report, "\n") {
		fmt.Fprintf(out, "       %s\n", line)
	}
}

// processFiles runs one converter per file with at most limit in flight.
// A failing file never cancels the others. Results are returned sorted by
// file path.
func processFiles(ctx context.Context, paths []string, limit int, newConverter func(string) *converter.Converter) []converter.Result {
	if limit < 1 {
		limit = 1
	}

	results := make([]converter.Result, len(paths))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = converter.Result{FilePath: path, Error: err}
				return nil
			}
			results[i] = newConverter(path).Run(ctx)
			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].FilePath < results[j].FilePath })
	return results
}
