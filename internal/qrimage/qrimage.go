// =============================================================================
// PayNow QR Generator - QR Image Renderer
// =============================================================================
//
// This package hands a payload string to the QR rendering library and
// returns PNG output. It knows nothing about EMV or PayNow: any string can
// be rendered.
//
// OUTPUT FORMATS:
//   - Raw PNG bytes (PNG)
//   - PNG written to a file (WriteFile)
//   - data URI for HTML embedding (DataURI)
//
// =============================================================================

package qrimage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultSize is the default image width and height in pixels.
	DefaultSize = 256

	dataURIPrefix = "data:image/png;base64,"
)

// ErrEmptyContent is returned when asked to render an empty string.
var ErrEmptyContent = errors.New("qrimage: content is empty")

// Renderer renders QR codes at a fixed size and recovery level.
type Renderer struct {
	// Size is the image width and height in pixels. Zero means DefaultSize.
	Size int

	// Level is the error correction level.
	Level qrcode.RecoveryLevel
}

// New returns a Renderer. A non-positive size falls back to DefaultSize.
func New(size int, level qrcode.RecoveryLevel) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{Size: size, Level: level}
}

// PNG renders content as a PNG image.
func (r *Renderer) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	size := r.Size
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(content, r.Level, size)
	if err != nil {
		return nil, fmt.Errorf("qrimage: failed to encode QR code: %w", err)
	}

	return png, nil
}

// WriteFile renders content and writes the PNG to path.
func (r *Renderer) WriteFile(content, path string) error {
	png, err := r.PNG(content)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("qrimage: failed to write %s: %w", path, err)
	}

	return nil
}

// DataURI renders content as a base64 PNG data URI.
func (r *Renderer) DataURI(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// ParseLevel maps a level name to a recovery level.
// Accepted names: low, medium, high, highest (case-insensitive).
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low", "l":
		return qrcode.Low, nil
	case "", "medium", "m":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, fmt.Errorf("qrimage: unknown recovery level %q", name)
	}
}
