// =============================================================================
// PayNow QR Generator - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which regenerates a QR code every
// time a YAML request file changes.
//
// COMMAND USAGE:
//   paynow watch FILE [--png out.png]
//
// REQUEST FILE:
//   mode: uen
//   target: 201403121W
//   reference: INV-001
//   name: ACME PTE LTD
//   city: Singapore
//
// Bursts of writes are coalesced: the code is rebuilt once the file has been
// quiet for watch.debounce (default 500ms). The command runs until
// interrupted.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/paynow-qr/internal/coalesce"
	"github.com/ginjaninja78/paynow-qr/internal/config"
	"github.com/ginjaninja78/paynow-qr/internal/logger"
	"github.com/ginjaninja78/paynow-qr/internal/paynow"
	"github.com/ginjaninja78/paynow-qr/internal/qrimage"
)

// watchPNG is the image path. Empty means FILE with a .png extension.
var watchPNG string

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Regenerate a QR code whenever a request file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		renderer, err := newRenderer(appConfig.QR)
		if err != nil {
			return err
		}

		requestPath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		pngPath := watchPNG
		if pngPath == "" {
			pngPath = strings.TrimSuffix(requestPath, filepath.Ext(requestPath)) + ".png"
		}

		w := &requestWatcher{
			requestPath: requestPath,
			pngPath:     pngPath,
			merchant:    appConfig.Merchant,
			renderer:    renderer,
			out:         cmd.OutOrStdout(),
			logger:      appLogger.With(logger.File(requestPath)),
		}

		return w.run(ctx, appConfig.Watch)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchPNG, "png", "", "Write the QR image to this file (default: FILE with .png extension)")
}

// =============================================================================
// REQUEST WATCHER
// =============================================================================

type requestWatcher struct {
	requestPath string
	pngPath     string
	merchant    config.MerchantSettings
	renderer    *qrimage.Renderer
	out         io.Writer
	logger      *slog.Logger

	mu sync.Mutex
}

// run generates once, then again after each coalesced change, until ctx ends.
func (w *requestWatcher) run(ctx context.Context, settings config.WatchSettings) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files instead of writing them in place, so the
	// directory is watched and events are filtered by name.
	if err := watcher.Add(filepath.Dir(w.requestPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.requestPath), err)
	}

	w.regenerate()

	debouncer := coalesce.New(settings.Debounce, w.regenerate)
	defer debouncer.Stop()

	w.logger.Info("watching request file", slog.Duration("debounce", settings.Debounce))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.requestPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug("request file changed", slog.String("op", event.Op.String()))
				debouncer.Trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logger.Error(err))
		}
	}
}

// regenerate rebuilds the payload and image, reporting problems without
// stopping the watch.
func (w *requestWatcher) regenerate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, err := w.generate()
	if err != nil {
		w.logger.Error("regeneration failed", logger.Error(err))
		fmt.Fprintf(w.out, "error: %v\n", err)
		return
	}

	w.logger.Info("QR code regenerated", slog.String("image", w.pngPath))
	fmt.Fprintln(w.out, payload)
}

func (w *requestWatcher) generate() (string, error) {
	request, err := loadRequest(w.requestPath)
	if err != nil {
		return "", err
	}

	request.MerchantName = firstNonEmpty(request.MerchantName, w.merchant.Name)
	request.MerchantCity = firstNonEmpty(request.MerchantCity, w.merchant.City)

	payload, err := request.Payload()
	if err != nil {
		return "", err
	}

	if err := w.renderer.WriteFile(payload, w.pngPath); err != nil {
		return "", err
	}

	return payload, nil
}

// loadRequest reads a YAML request file. The mode is parsed leniently, as
// on the command line.
func loadRequest(path string) (paynow.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return paynow.Request{}, fmt.Errorf("failed to read request: %w", err)
	}

	var request paynow.Request
	if err := yaml.Unmarshal(data, &request); err != nil {
		return paynow.Request{}, fmt.Errorf("failed to parse request: %w", err)
	}

	if request.Mode == "" {
		return paynow.Request{}, errors.New("request: mode is required")
	}

	mode, err := paynow.ParseMode(string(request.Mode))
	if err != nil {
		return paynow.Request{}, err
	}
	request.Mode = mode

	return request, nil
}
