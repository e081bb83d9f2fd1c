// Package config loads the uploader configuration from an optional file,
// KINECTFW_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moffa90/go-kinectfw/protocol"
)

// EnvPrefix prefixes every environment variable, e.g. KINECTFW_USB_TIMEOUT.
const EnvPrefix = "KINECTFW"

type USBConfig struct {
	VendorID      uint16        `mapstructure:"vendorId"`
	ProductID     uint16        `mapstructure:"productId"`
	Configuration int           `mapstructure:"configuration"`
	Interface     int           `mapstructure:"interface"`
	OutEndpoint   uint8         `mapstructure:"outEndpoint"`
	InEndpoint    uint8         `mapstructure:"inEndpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Debug         int           `mapstructure:"debug"`
}

type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

type MetricsConfig struct {
	// Textfile is written in Prometheus text format after each run
	Textfile string `mapstructure:"textfile"`
}

type UploadConfig struct {
	ChunkSize      int  `mapstructure:"chunkSize"`
	ReadBufferSize int  `mapstructure:"readBufferSize"`
	DryRun         bool `mapstructure:"dryRun"`
}

type Config struct {
	USB     USBConfig     `mapstructure:"usb"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Upload  UploadConfig  `mapstructure:"upload"`
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"timeout":      "usb.timeout",
	"usb-debug":    "usb.debug",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"log-file":     "logging.file.filename",
	"metrics-file": "metrics.textfile",
	"chunk-size":   "upload.chunkSize",
	"dry-run":      "upload.dryRun",
}

// Load reads the configuration. An empty path falls back to
// $KINECTFW_CONFIG, then to kinect-upload-fw.{yaml,toml,json} in the working
// directory or $HOME/.config/kinect-upload-fw. A missing default file is not
// an error; a missing explicit file is.
//
// Flags present in flags and listed in FlagKeys override every other source
// when set on the command line.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/kinect-upload-fw")
		v.SetConfigName("kinect-upload-fw")
	}

	setDefaults(v)

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the uploader cannot work with.
func (c *Config) Validate() error {
	if c.Upload.ChunkSize < 1 || c.Upload.ChunkSize > protocol.MaxTransferSize {
		return fmt.Errorf("invalid upload.chunkSize %d: must be between 1 and %d",
			c.Upload.ChunkSize, protocol.MaxTransferSize)
	}
	if c.Upload.ReadBufferSize < protocol.ReceiveBufferSize {
		return fmt.Errorf("invalid upload.readBufferSize %d: must be at least %d",
			c.Upload.ReadBufferSize, protocol.ReceiveBufferSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("usb.vendorId", 0x045E)
	v.SetDefault("usb.productId", 0x02AD)
	v.SetDefault("usb.configuration", 1)
	v.SetDefault("usb.interface", 0)
	v.SetDefault("usb.outEndpoint", 0x01)
	v.SetDefault("usb.inEndpoint", 0x81)
	v.SetDefault("usb.timeout", "0s")
	v.SetDefault("usb.debug", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("upload.chunkSize", 512)
	v.SetDefault("upload.readBufferSize", 512)
	v.SetDefault("upload.dryRun", false)
}
