// =============================================================================
// PayNow QR Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the paynow CLI. It hands control to the
// Cobra command tree in the cmd package.
//
// USAGE:
//   paynow encode   - Build a single PayNow QR payload (and image)
//   paynow decode   - Verify and decode a payload
//   paynow process  - Batch-generate QR codes from recipient sheets
//   paynow watch    - Regenerate a QR code when a request file changes
//   paynow version  - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Encoder, checksum, PayNow rules and the batch pipeline
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/paynow-qr/cmd"
)

func main() {
	cmd.Execute()
}
