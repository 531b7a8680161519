// =============================================================================
// PayNow QR Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (paynow)
//   ├── encodeCmd  (paynow encode)
//   ├── decodeCmd  (paynow decode)
//   ├── processCmd (paynow process)
//   ├── watchCmd   (paynow watch)
//   └── versionCmd (paynow version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up the structured logger
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/paynow-qr/internal/config"
	"github.com/ginjaninja78/paynow-qr/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig and appLogger are set by the root command's PersistentPreRunE.
var (
	appConfig *config.MainConfig
	appLogger *slog.Logger
	closeLog  = func() error { return nil }
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "paynow",
	Short: "PayNow QR Generator - Build Singapore PayNow QR payloads and images",
	Long: `PayNow QR Generator builds EMVCo merchant-presented QR payloads for
Singapore PayNow transfers, either one at a time or in batches from CSV
and XLSX recipient sheets.

Key Features:
  - Phone number and UEN proxies, optional bill reference
  - CRC16-CCITT checksum, payload decoding and verification
  - PNG rendering with configurable size and error correction
  - Concurrent batch processing with YAML or CSV manifests
  - Live regeneration while a request file is edited

Example Usage:
  paynow encode --mode phone --target 91234567
  paynow encode --mode uen --target 201403121W --reference INV-001 --png qr.png
  paynow decode 00020101021126...
  paynow process --config ./config.yaml
  paynow watch request.yaml`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initApp loads the configuration and builds the logger.
func initApp() error {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}

	log, closeFn, err := logger.New(level, mainConfig.LogFile)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	appConfig = mainConfig
	appLogger = log
	closeLog = closeFn

	appLogger.Debug("configuration loaded", slog.String("config", cfgFile))
	return nil
}
