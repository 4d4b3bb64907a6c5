package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/MeKo-Tech/qrscan/internal/batch"
	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/MeKo-Tech/qrscan/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBatchDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeQRDocx(t, dir, "https://example.com/batch")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "poster.png"),
		testutil.QRPNG(t, "plain payload"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("nothing"), 0o600))
	return dir
}

func TestBatchCommand(t *testing.T) {
	assert.True(t, strings.HasPrefix(batchCmd.Use, "batch"))
	assert.NotEmpty(t, batchCmd.Short)

	for _, name := range []string{
		"file-format", "guess-format", "workers", "recursive", "include", "exclude",
		"fail-fast", "format", "output", "stats", "quiet",
	} {
		assert.NotNil(t, batchCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestConfigToBatchConfig(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "batch"}
		c.Flags().String("file-format", "", "")
		c.Flags().Bool("guess-format", true, "")
		c.Flags().Int("workers", 0, "")
		c.Flags().Bool("recursive", false, "")
		c.Flags().StringSlice("include", nil, "")
		c.Flags().StringSlice("exclude", nil, "")
		c.Flags().Bool("fail-fast", false, "")
		return c
	}

	t.Run("defaults", func(t *testing.T) {
		cfg := config.DefaultConfig()
		bc := configToBatchConfig(&cfg, newCmd())
		assert.True(t, bc.GuessFormat)
		assert.Equal(t, runtime.NumCPU(), bc.Workers)
		assert.False(t, bc.Recursive)
	})

	t.Run("config values", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Batch.Workers = 3
		cfg.Batch.GuessFormat = false
		bc := configToBatchConfig(&cfg, newCmd())
		assert.Equal(t, 3, bc.Workers)
		assert.False(t, bc.GuessFormat)
	})

	t.Run("flags override config", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Batch.Workers = 3
		c := newCmd()
		require.NoError(t, c.ParseFlags([]string{
			"--workers", "7", "--guess-format=false", "--recursive",
			"--include", "*.pdf,*.png", "--file-format", "document/pdf",
		}))
		bc := configToBatchConfig(&cfg, c)
		assert.Equal(t, 7, bc.Workers)
		assert.False(t, bc.GuessFormat)
		assert.True(t, bc.Recursive)
		assert.Equal(t, []string{"*.pdf", "*.png"}, bc.IncludePatterns)
		assert.Equal(t, "document/pdf", bc.FileFormat)
	})
}

func TestBatchText(t *testing.T) {
	dir := makeBatchDir(t)

	stdout, stderr, err := runCommand(t, "batch", dir, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Batch finished")

	assert.Contains(t, stdout, "doc.docx: completed (office, 1 images)")
	assert.Contains(t, stdout, "qr_code_uri: https://example.com/batch")
	assert.Contains(t, stdout, "poster.png: completed (image, 1 images)")
	assert.Contains(t, stdout, "qr_code_data_raw: plain payload")
	assert.Contains(t, stdout, "notes.txt: opt_out")
}

func TestBatchJSONWithStats(t *testing.T) {
	dir := makeBatchDir(t)

	stdout, _, err := runCommand(t, "batch", dir, "--format", "json", "--include", "*.docx", "--quiet")
	require.NoError(t, err)

	var res batch.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res), "stdout: %s", stdout)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "document/office/word", res.Items[0].Format)
	require.NotNil(t, res.Items[0].Result)
	assert.Equal(t, 1, res.Items[0].Result.ImagesProcessed)

	stdout, _, err = runCommand(t, "batch", dir, "--stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Processing Statistics:")
	assert.Contains(t, stdout, "Total files: 3")
	assert.Contains(t, stdout, "Opted out: 1")
}

func TestBatchOutputFile(t *testing.T) {
	dir := makeBatchDir(t)
	out := filepath.Join(t.TempDir(), "results.yaml")

	stdout, _, err := runCommand(t, "batch", dir, "--format", "yaml", "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Results written to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "items:")
	assert.Contains(t, string(data), "poster.png")
}

func TestBatchErrors(t *testing.T) {
	_, _, err := runCommand(t, "batch")
	require.Error(t, err)

	_, _, err = runCommand(t, "batch", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	_, _, err = runCommand(t, "batch", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files found")

	_, _, err = runCommand(t, "batch", makeBatchDir(t), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}
