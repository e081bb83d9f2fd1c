package bootloader

import "github.com/moffa90/go-kinectfw/protocol"

// Config holds the uploader configuration.
type Config struct {
	// ProgressCallback is called during the upload to report progress (optional)
	ProgressCallback ProgressCallback

	// FrameCallback is called for every command sent and status received (optional)
	FrameCallback FrameCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ChunkSize is the maximum size of a single payload bulk OUT transfer.
	// Default is protocol.MaxTransferSize (512 bytes)
	ChunkSize int

	// ReadBufferSize is the capacity of every bulk IN read.
	// The device needs reads of at least protocol.ReceiveBufferSize bytes.
	ReadBufferSize int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChunkSize:      protocol.MaxTransferSize,
		ReadBufferSize: protocol.ReceiveBufferSize,
	}
}

// Option is a functional option for configuring the Uploader.
type Option func(*Config)

// WithProgressCallback sets a callback function to track upload progress.
//
// Example:
//
//	up := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%s: %d bytes\n", p.Phase, p.BytesWritten)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithFrameCallback sets a callback that observes every frame exchanged
// with the device.
func WithFrameCallback(callback FrameCallback) Option {
	return func(c *Config) {
		c.FrameCallback = callback
	}
}

// WithLogger sets a logger for the uploader operations.
//
// Example:
//
//	up := bootloader.New(device, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithChunkSize sets the maximum payload bytes per bulk OUT transfer.
// Values outside 1..protocol.MaxTransferSize are ignored.
//
// Example:
//
//	up := bootloader.New(device, bootloader.WithChunkSize(64))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxTransferSize {
			c.ChunkSize = size
		}
	}
}

// WithReadBufferSize sets the bulk IN read capacity.
// Values below protocol.ReceiveBufferSize are ignored.
func WithReadBufferSize(size int) Option {
	return func(c *Config) {
		if size >= protocol.ReceiveBufferSize {
			c.ReadBufferSize = size
		}
	}
}
