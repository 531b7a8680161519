// =============================================================================
// PayNow QR Generator - Decode Command
// =============================================================================
//
// This file defines the 'decode' command, which verifies a payload's
// checksum and prints its fields as YAML.
//
// COMMAND USAGE:
//   paynow decode PAYLOAD [--skip-verify]
//
// OUTPUT:
//   "00": "01"
//   "01": "11"
//   "26":
//     "00": SG.PAYNOW
//     ...
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/paynow-qr/internal/emvqr"
)

// skipVerify parses the payload without checking the CRC field.
var skipVerify bool

var decodeCmd = &cobra.Command{
	Use:   "decode PAYLOAD",
	Short: "Verify and decode a QR payload",
	Long: `The decode command checks the CRC16 field of an EMV QR payload and prints
the decoded fields as YAML. Template tags (26-51, 62, 64, 80-99) are shown
as nested maps.

With --skip-verify the checksum is not checked and the CRC field itself is
included in the output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := strings.TrimSpace(args[0])

		var (
			tree emvqr.Tree
			err  error
		)
		if skipVerify {
			tree, err = emvqr.Parse(payload, emvqr.IsTemplate)
		} else {
			tree, err = emvqr.Decode(payload)
		}
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(plainTree(tree))
		if err != nil {
			return fmt.Errorf("failed to render YAML: %w", err)
		}

		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Do not check the CRC field")
}

// plainTree converts a Tree to nested maps of strings for printing.
func plainTree(tree emvqr.Tree) map[string]any {
	out := make(map[string]any, len(tree))
	for tag, v := range tree {
		switch v.Kind() {
		case emvqr.KindLeaf:
			out[tag] = v.Text()
		case emvqr.KindNested:
			out[tag] = plainTree(v.Tree())
		}
	}
	return out
}
