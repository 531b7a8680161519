// =============================================================================
// PayNow QR Generator - Encode Command
// =============================================================================
//
// This file defines the 'encode' command, which builds a single PayNow
// payload and optionally renders it.
//
// COMMAND USAGE:
//   paynow encode --mode phone|uen --target X [flags]
//
// FLAGS:
//   --mode       : phone or uen
//   --target     : phone number or UEN (8-digit numbers get +65)
//   --reference  : bill number, UEN mode only
//   --name       : merchant name (default from config, "NA")
//   --city       : merchant city (default from config, "Singapore")
//   --png        : write the QR image to this file
//   --data-uri   : also print the image as a base64 data URI
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/paynow-qr/internal/config"
	"github.com/ginjaninja78/paynow-qr/internal/paynow"
	"github.com/ginjaninja78/paynow-qr/internal/qrimage"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	encodeMode      string
	encodeTarget    string
	encodeReference string
	encodeName      string
	encodeCity      string
	encodePNG       string
	encodeDataURI   bool
)

// =============================================================================
// ENCODE COMMAND DEFINITION
// =============================================================================

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build a PayNow QR payload",
	Long: `The encode command builds one PayNow QR payload and prints it.

In phone mode an 8-digit local number is prefixed with +65. In UEN mode an
optional bill reference is encoded in the additional data template.

With --png the QR image is written to a file; with --data-uri it is printed
as a data:image/png;base64 URI on a second line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := paynow.ParseMode(encodeMode)
		if err != nil {
			return err
		}

		request := paynow.Request{
			Mode:         mode,
			Target:       encodeTarget,
			Reference:    encodeReference,
			MerchantName: firstNonEmpty(encodeName, appConfig.Merchant.Name),
			MerchantCity: firstNonEmpty(encodeCity, appConfig.Merchant.City),
		}

		payload, err := request.Payload()
		if err != nil {
			return err
		}

		appLogger.Debug("payload encoded",
			slog.String("mode", string(mode)),
			slog.Int("length", len(payload)),
		)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, payload)

		if encodePNG == "" && !encodeDataURI {
			return nil
		}

		renderer, err := newRenderer(appConfig.QR)
		if err != nil {
			return err
		}

		if encodePNG != "" {
			if err := renderer.WriteFile(payload, encodePNG); err != nil {
				return err
			}
			appLogger.Info("image written", slog.String("file", encodePNG))
		}

		if encodeDataURI {
			uri, err := renderer.DataURI(payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, uri)
		}

		return nil
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().StringVar(&encodeMode, "mode", "phone", "Proxy type: phone or uen")
	encodeCmd.Flags().StringVar(&encodeTarget, "target", "", "Phone number or UEN")
	encodeCmd.Flags().StringVar(&encodeReference, "reference", "", "Bill reference (UEN mode only)")
	encodeCmd.Flags().StringVar(&encodeName, "name", "", "Merchant name")
	encodeCmd.Flags().StringVar(&encodeCity, "city", "", "Merchant city")
	encodeCmd.Flags().StringVar(&encodePNG, "png", "", "Write the QR image to this PNG file")
	encodeCmd.Flags().BoolVar(&encodeDataURI, "data-uri", false, "Print the QR image as a data URI")

	encodeCmd.MarkFlagRequired("target")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// newRenderer builds a QR renderer from the configuration.
func newRenderer(settings config.QRSettings) (*qrimage.Renderer, error) {
	level, err := qrimage.ParseLevel(settings.Recovery)
	if err != nil {
		return nil, err
	}
	return qrimage.New(settings.Size, level), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
