package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sheetatlas/sheetatlas"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("garbage"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, 100, c.SampleSize)
	assert.InDelta(t, 0.7, c.ConfidenceThreshold, 1e-9)
	assert.Equal(t, "auto", c.MergeStrategy)
	assert.InDelta(t, 0.2, c.ChaosThreshold, 1e-9)
	assert.Equal(t, 6, c.MergeWarnCells)
	assert.Equal(t, 10, c.MaxHeaderScan)
	assert.Equal(t, -1, c.HeaderRows)
	assert.Empty(t, c.Rules)
	assert.False(t, c.NoDates)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheetatlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_size: 25\nmerge_strategy: flatten\nno_dates: true\n"), 0o644))

	c, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 25, c.SampleSize)
	assert.Equal(t, "flatten", c.MergeStrategy)
	assert.True(t, c.NoDates)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_ExplicitFileErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")

	path := filepath.Join(t.TempDir(), "sheetatlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_size: [oops\n"), 0o644))
	_, err = loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SHEETATLAS_SAMPLE_SIZE", "17")
	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 17, c.SampleSize)
}

func TestReaderOptions_Plumbing(t *testing.T) {
	assert.Empty(t, readerOptions(&config{HeaderRows: -1}, nil))

	opts := readerOptions(&config{MaxHeaderScan: 5, HeaderRows: 2}, sheetatlas.NewInternPool())
	assert.Len(t, opts, 3)
}

func TestEnrichOptions_Validation(t *testing.T) {
	_, err := enrichOptions(&config{MergeStrategy: "diagonal"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown merge strategy")

	_, err = enrichOptions(&config{Rules: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("columns:\n  - column: Amount\n    constraint: \"value >=\"\n"), 0o644))
	_, err = enrichOptions(&config{Rules: bad}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rules in")

	good := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(good, []byte("columns:\n  - column: Amount\n    required: true\n"), 0o644))
	opts, err := enrichOptions(&config{
		SampleSize:          10,
		ConfidenceThreshold: 0.5,
		MergeStrategy:       "flatten",
		Rules:               good,
		NoDates:             true,
	}, sheetatlas.NewInternPool())
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

// writeWorkbook saves a one-sheet workbook into a temp dir.
func writeWorkbook(t *testing.T, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	for axis, v := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", axis, v))
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func runCommand(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	return Execute(), out.String()
}

func TestAnalyzeCommand_CleanWorkbook(t *testing.T) {
	path := writeWorkbook(t, map[string]any{
		"A1": "Name", "B1": "Qty",
		"A2": "alpha", "B2": 1,
		"A3": "beta", "B3": 2,
	})

	code, out := runCommand(t, "analyze", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Sheet: Sheet1 (3 rows, 2 columns, 1 header rows)")
	assert.Contains(t, out, "Qty")
}

func TestAnalyzeCommand_DataErrorsExitOne(t *testing.T) {
	path := writeWorkbook(t, map[string]any{
		"A1": "Amount",
		"A2": 10, "A3": 20, "A4": "N/A", "A5": 40, "A6": 50,
	})

	code, out := runCommand(t, "analyze", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "expected Number, got Text")
}

func TestAnalyzeCommand_MissingFileExitsTwo(t *testing.T) {
	code, _ := runCommand(t, "analyze", filepath.Join(t.TempDir(), "none.xlsx"))
	assert.Equal(t, 2, code)
}

func TestDescribeCommand(t *testing.T) {
	path := writeWorkbook(t, map[string]any{"A1": "Name", "A2": "x"})

	code, out := runCommand(t, "describe", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "1 sheets, 1900 date system")
	assert.Contains(t, out, "Sheet: Sheet1")
}

func TestVersionCommand(t *testing.T) {
	code, out := runCommand(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "sheetatlas dev")
}
