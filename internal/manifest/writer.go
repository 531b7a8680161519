// =============================================================================
// PayNow QR Generator - Manifest Writer Module
// =============================================================================
//
// This module writes the manifest that accompanies a batch of generated QR
// images. The manifest lists, for every encoded row, the payload string and
// the image file it was rendered to, so payloads can be re-rendered or
// audited without scanning the images.
//
// YAML FORMAT:
//
//   run_id: 6f1c...
//   source: input/recipients.csv
//   generated_at: 2024-01-15T10:30:00Z
//   entries:
//     - row: 2
//       mode: phone
//       target: "+6591234567"
//       payload: 000201010211...6304ABCD
//       image: recipients_2_....png
//
// CSV FORMAT:
//
//   row,mode,target,reference,name,payload,image
//   2,phone,+6591234567,,,000201...,recipients_2_....png
//
// =============================================================================

package manifest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MANIFEST TYPES
// =============================================================================

// Entry is one generated QR code.
type Entry struct {
	Row       int    `yaml:"row"`
	Mode      string `yaml:"mode"`
	Target    string `yaml:"target"`
	Reference string `yaml:"reference,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Payload   string `yaml:"payload"`
	Image     string `yaml:"image,omitempty"`
}

// Document is the YAML manifest root.
type Document struct {
	RunID       string    `yaml:"run_id"`
	Source      string    `yaml:"source"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Entries     []Entry   `yaml:"entries"`
}

// csvHeader is the CSV column order.
var csvHeader = []string{"row", "mode", "target", "reference", "name", "payload", "image"}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls manifest generation.
type Options struct {
	// Format is "yaml" or "csv". Default: "yaml"
	Format string

	// RunID identifies the batch run.
	RunID string

	// Source is the input file the entries came from.
	Source string

	// Now overrides the generation time. Used by tests.
	Now func() time.Time
}

// Extension returns the file extension for a manifest format.
func Extension(format string) string {
	if strings.EqualFold(format, "csv") {
		return ".csv"
	}
	return ".yaml"
}

// =============================================================================
// GENERATION FUNCTIONS
// =============================================================================

// Generate renders the manifest. Entries are sorted by row.
func Generate(entries []Entry, options Options) ([]byte, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Row < sorted[j].Row })

	switch strings.ToLower(options.Format) {
	case "", "yaml":
		now := time.Now
		if options.Now != nil {
			now = options.Now
		}
		doc := Document{
			RunID:       options.RunID,
			Source:      options.Source,
			GeneratedAt: now().UTC(),
			Entries:     sorted,
		}
		data, err := yaml.Marshal(&doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML manifest: %w", err)
		}
		return data, nil

	case "csv":
		var buffer bytes.Buffer
		w := csv.NewWriter(&buffer)
		if err := w.Write(csvHeader); err != nil {
			return nil, err
		}
		for _, e := range sorted {
			record := []string{strconv.Itoa(e.Row), e.Mode, e.Target, e.Reference, e.Name, e.Payload, e.Image}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV manifest: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("failed to write CSV manifest: %w", err)
		}
		return buffer.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown manifest format %q", options.Format)
	}
}

// Write renders the manifest and writes it to path.
func Write(entries []Entry, path string, options Options) error {
	data, err := Generate(entries, options)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// Read loads a YAML manifest written by Write.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &doc, nil
}
