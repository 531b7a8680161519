package converter_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/paynow-qr/internal/config"
	"github.com/ginjaninja78/paynow-qr/internal/converter"
	"github.com/ginjaninja78/paynow-qr/internal/manifest"
	"github.com/ginjaninja78/paynow-qr/internal/paynow"
	"github.com/ginjaninja78/paynow-qr/internal/qrimage"
	"github.com/ginjaninja78/paynow-qr/internal/types"
)

const (
	phonePayload = "00020101021126380009SG.PAYNOW010100211+6591234567030115204000053037025802SG5902NA6009Singapore620063040D51"
	uenPayload   = "00020101021126370009SG.PAYNOW010120210201403121W030115204000053037025802SG5902NA6009Singapore62110107INV-00163040C26"
)

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.InputArchiveDir = filepath.Join(root, "archive")
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))
	return cfg
}

func newRenderer(t *testing.T) *qrimage.Renderer {
	t.Helper()

	level, err := qrimage.ParseLevel("medium")
	require.NoError(t, err)
	return qrimage.New(128, level)
}

func writeInput(t *testing.T, cfg *config.MainConfig, name, content string) string {
	t.Helper()

	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	path := writeInput(t, cfg, "recipients.csv",
		"Mode,Target,Reference,Name\n"+
			"phone,91234567,,\n"+
			"uen,201403121W,INV-001,\n")

	result := converter.New(path, cfg, newRenderer(t), nil).Run(context.Background())
	require.NoError(t, result.Error)
	assert.True(t, result.Success)

	assert.Equal(t, 2, result.Stats.RowsProcessed)
	assert.Equal(t, 2, result.Stats.CodesGenerated)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, phonePayload, result.Entries[0].Payload)
	assert.Equal(t, "+6591234567", result.Entries[0].Target)
	assert.Equal(t, uenPayload, result.Entries[1].Payload)

	for _, e := range result.Entries {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, e.Image))
		assert.Contains(t, e.Image, "recipients_")
	}

	assert.Equal(t, filepath.Join(cfg.OutputDir, "recipients_manifest.yaml"), result.ManifestFile)
	doc, err := manifest.Read(result.ManifestFile)
	require.NoError(t, err)
	assert.Equal(t, result.Entries, doc.Entries)
	assert.Equal(t, path, doc.Source)
	assert.NotEmpty(t, doc.RunID)

	assert.Equal(t, filepath.Join(cfg.InputArchiveDir, "recipients.csv"), result.ArchivePath)
	assert.NoFileExists(t, path)
}

func TestRunDryRun(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	path := writeInput(t, cfg, "recipients.csv", "mode,target\nphone,91234567\n")

	result := converter.New(path, cfg, nil, nil).WithDryRun(true).Run(context.Background())
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, phonePayload, result.Entries[0].Payload)
	assert.Empty(t, result.Entries[0].Image)
	assert.Empty(t, result.ManifestFile)

	assert.FileExists(t, path)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunPhoneReferenceNotInManifest(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	path := writeInput(t, cfg, "recipients.csv",
		"mode,target,reference,name\n"+
			"phone,91234567,INV-9,\n"+
			"uen,201403121W,INV-001,\n")

	result := converter.New(path, cfg, nil, nil).WithDryRun(true).Run(context.Background())
	require.NoError(t, result.Error)
	require.Len(t, result.Entries, 2)

	assert.Empty(t, result.Entries[0].Reference)
	assert.Equal(t, phonePayload, result.Entries[0].Payload)
	assert.NotContains(t, result.Entries[0].Payload, "INV-9")
	assert.Equal(t, 1, result.Stats.ValidationWarnings)

	assert.Equal(t, "INV-001", result.Entries[1].Reference)
	assert.Equal(t, uenPayload, result.Entries[1].Payload)
}

func TestRunValidationFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	path := writeInput(t, cfg, "recipients.csv", "mode,target\nphone,91234567\nbank,123\n")

	result := converter.New(path, cfg, newRenderer(t), nil).Run(context.Background())
	require.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Stats.ValidationErrors)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, 3, result.Findings[0].RowNumber)
	assert.FileExists(t, path)
}

func TestRunContinueOnError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.ContinueOnError = true
	cfg.ManifestFormat = "csv"
	path := writeInput(t, cfg, "batch.csv",
		"mode,target,reference\n"+
			"phone,91234567,\n"+
			"bank,123,\n"+
			"uen,201403121W,"+strings.Repeat("R", 96)+"\n")

	result := converter.New(path, cfg, newRenderer(t), nil).Run(context.Background())
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.CodesGenerated)
	assert.Equal(t, 2, result.Stats.RowsSkipped)
	assert.Equal(t, 2, result.Stats.ValidationErrors)

	rules := []string{}
	for _, f := range result.Findings {
		rules = append(rules, f.Rule)
	}
	assert.ElementsMatch(t, []string{"mode", "encode"}, rules)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "batch_manifest.csv"), result.ManifestFile)
}

func TestRunUnsupportedExtension(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	path := writeInput(t, cfg, "recipients.txt", "mode,target\n")

	result := converter.New(path, cfg, nil, nil).Run(context.Background())
	assert.ErrorIs(t, result.Error, converter.ErrUnsupportedFormat)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	path := writeInput(t, cfg, "recipients.csv", "mode,target\nphone,91234567\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := converter.New(path, cfg, nil, nil).Run(ctx)
	assert.ErrorIs(t, result.Error, context.Canceled)
}

func TestToRecipients(t *testing.T) {
	t.Parallel()

	sheet := &types.Sheet{
		Headers: []string{"Payee Type", "PayNow ID", "Bill"},
		Rows: []types.Row{
			{Number: 2, Fields: map[string]string{"Payee Type": "uen", "PayNow ID": "T1", "Bill": "B1"}},
		},
	}

	columns := config.ColumnMapping{Mode: "payee type", Target: "paynow id", Reference: "bill", Name: "name"}
	recipients, err := converter.ToRecipients(sheet, columns)
	require.NoError(t, err)
	assert.Equal(t, []types.Recipient{{RowNumber: 2, Mode: "uen", Target: "T1", Reference: "B1"}}, recipients)

	columns.Target = "missing"
	_, err = converter.ToRecipients(sheet, columns)
	assert.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	merchant := config.MerchantSettings{Name: "NA", City: "Singapore"}

	req, err := converter.BuildRequest(types.Recipient{Mode: "Mobile", Target: "91234567"}, merchant)
	require.NoError(t, err)
	assert.Equal(t, paynow.ModePhone, req.Mode)
	assert.Equal(t, "NA", req.MerchantName)
	assert.Equal(t, "Singapore", req.MerchantCity)

	req, err = converter.BuildRequest(types.Recipient{Mode: "uen", Target: "T1", Name: " ACME "}, merchant)
	require.NoError(t, err)
	assert.Equal(t, "ACME", req.MerchantName)

	_, err = converter.BuildRequest(types.Recipient{Mode: "bank"}, merchant)
	assert.ErrorIs(t, err, paynow.ErrInvalidMode)
}
