package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x045E), cfg.USB.VendorID)
	assert.Equal(t, uint16(0x02AD), cfg.USB.ProductID)
	assert.Equal(t, 1, cfg.USB.Configuration)
	assert.Equal(t, 0, cfg.USB.Interface)
	assert.Equal(t, uint8(0x01), cfg.USB.OutEndpoint)
	assert.Equal(t, uint8(0x81), cfg.USB.InEndpoint)
	assert.Zero(t, cfg.USB.Timeout)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File.Filename)

	assert.Equal(t, 512, cfg.Upload.ChunkSize)
	assert.Equal(t, 512, cfg.Upload.ReadBufferSize)
	assert.False(t, cfg.Upload.DryRun)
	assert.Empty(t, cfg.Metrics.Textfile)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
usb:
  timeout: 2s
  productId: 0x02b0
logging:
  level: debug
  file:
    filename: /tmp/kinect.log
upload:
  chunkSize: 64
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.USB.Timeout)
	assert.Equal(t, uint16(0x02B0), cfg.USB.ProductID)
	assert.Equal(t, uint16(0x045E), cfg.USB.VendorID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/kinect.log", cfg.Logging.File.Filename)
	assert.Equal(t, 64, cfg.Upload.ChunkSize)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorContains(t, err, "read config")
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KINECTFW_USB_TIMEOUT", "750ms")
	t.Setenv("KINECTFW_LOGGING_LEVEL", "warn")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.USB.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFlagsOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KINECTFW_LOGGING_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("timeout", 0, "")
	flags.String("log-level", "info", "")
	flags.Bool("dry-run", false, "")
	flags.String("metrics-file", "", "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug", "--dry-run", "--metrics-file=/tmp/m.prom"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Upload.DryRun)
	assert.Equal(t, "/tmp/m.prom", cfg.Metrics.Textfile)
	assert.Zero(t, cfg.USB.Timeout, "unset flags keep the configured value")
}

func TestLoadRejectsUploadSizes(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{name: "zero chunk size", args: []string{"--chunk-size=0"}, wantErr: "invalid upload.chunkSize 0"},
		{name: "chunk size above 512", args: []string{"--chunk-size=4096"}, wantErr: "invalid upload.chunkSize 4096"},
		{name: "chunk size from env", env: map[string]string{"KINECTFW_UPLOAD_CHUNKSIZE": "-1"}, wantErr: "invalid upload.chunkSize -1"},
		{name: "small read buffer", env: map[string]string{"KINECTFW_UPLOAD_READBUFFERSIZE": "64"}, wantErr: "invalid upload.readBufferSize 64"},
		{name: "smallest chunk size", args: []string{"--chunk-size=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.Int("chunk-size", 512, "")
			require.NoError(t, flags.Parse(tt.args))

			cfg, err := Load("", flags)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, cfg.Upload.ChunkSize)
		})
	}
}
