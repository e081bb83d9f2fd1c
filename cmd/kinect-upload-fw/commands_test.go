package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-kinectfw/firmware"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFirmware(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "firmware.bin")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDryRun(t *testing.T) {
	fw := writeFirmware(t, 16384*2+100)
	metricsFile := filepath.Join(t.TempDir(), "kinectfw.prom")

	stdout, stderr, err := execute(t, "--dry-run", "--quiet", "--log-format=json", "--metrics-file", metricsFile, fw)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Uploaded 32868 bytes in 3 pages (5 commands, 0 warnings)")
	assert.Contains(t, stderr, `"msg":"dry run: using simulated bootloader"`)
	assert.Contains(t, stderr, `"session":`)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `kinectfw_commands_total{cmd="WRITE"} 3`)
	assert.Contains(t, string(data), `kinectfw_uploads_total{result="success"`)
}

func TestDryRunEmptyFirmware(t *testing.T) {
	fw := writeFirmware(t, 0)

	stdout, _, err := execute(t, "--dry-run", "--quiet", fw)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Uploaded 0 bytes in 0 pages (2 commands")
}

func TestDebugLogsFrames(t *testing.T) {
	fw := writeFirmware(t, 10)

	_, stderr, err := execute(t, "--dry-run", "--quiet", "--log-level=debug", fw)
	require.NoError(t, err)
	assert.Contains(t, stderr, "sending command")
	assert.Contains(t, stderr, "09 20 02 06 01 00 00 00", "INIT frame hex dump")
}

func TestMissingFirmware(t *testing.T) {
	_, _, err := execute(t, "--dry-run", "--quiet")
	require.Error(t, err)

	var openErr *firmware.OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "firmware.bin", openErr.Path)
	assert.Equal(t, 2, exitCode(err))
}

func TestTooManyArgs(t *testing.T) {
	_, _, err := execute(t, "a.bin", "b.bin")
	assert.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	fw := writeFirmware(t, 10)

	_, _, err := execute(t, "--dry-run", "--log-level=chatty", fw)
	assert.ErrorContains(t, err, "init logger")
}

func TestChunkSizeOutOfRange(t *testing.T) {
	fw := writeFirmware(t, 10)

	for _, size := range []string{"0", "513", "4096"} {
		t.Run(size, func(t *testing.T) {
			stdout, _, err := execute(t, "--dry-run", "--quiet", "--chunk-size="+size, fw)
			assert.ErrorContains(t, err, "invalid upload.chunkSize "+size)
			assert.Empty(t, stdout, "nothing is uploaded")
		})
	}
}
