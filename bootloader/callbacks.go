package bootloader

import (
	"time"

	"github.com/moffa90/go-kinectfw/protocol"
)

// Upload phases reported through Progress.Phase.
const (
	PhaseHandshake  = "handshake"
	PhaseUploading  = "uploading"
	PhaseFinalizing = "finalizing"
	PhaseComplete   = "complete"
)

// Progress contains information about the upload progress.
// Passed to ProgressCallback during Upload.
type Progress struct {
	// Phase describes the current operation phase:
	//   "handshake"  - INIT command and its two replies
	//   "uploading"  - WRITE commands
	//   "finalizing" - FINALIZE command
	//   "complete"   - upload finished, device will re-enumerate
	Phase string

	// Page is the number of pages written so far
	Page int

	// TotalPages is the expected page count, or 0 when the source size is unknown
	TotalPages int

	// BytesWritten is the total number of firmware bytes acknowledged so far
	BytesWritten int64

	// TotalBytes is the firmware size, or 0 when the source size is unknown
	TotalBytes int64

	// Percentage is the completion percentage (0.0 to 100.0).
	// Only meaningful when TotalBytes is known.
	Percentage float64

	// Sequence is the sequence number the next command will carry
	Sequence uint32

	// Address is the device address the next WRITE will target
	Address uint32

	// ElapsedTime is the time elapsed since the upload started
	ElapsedTime time.Duration
}

// ProgressCallback is called after each protocol step to report progress.
// Implementations should return quickly; the device waits on the host.
type ProgressCallback func(Progress)

// Direction tells whether a frame was sent or received.
type Direction int

const (
	// Sent marks a command frame written to the device
	Sent Direction = iota

	// Received marks a validated status frame read from the device
	Received
)

func (d Direction) String() string {
	if d == Sent {
		return "sent"
	}
	return "received"
}

// FrameEvent describes one frame exchanged with the device.
// Command is set for Sent events, Status for Received events.
type FrameEvent struct {
	Direction Direction
	Command   protocol.CommandFrame
	Status    protocol.StatusFrame
}

// FrameCallback observes frames as they are exchanged.
type FrameCallback func(FrameEvent)

// Logger is an optional logging interface that can be provided to the uploader.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	up := bootloader.New(device, bootloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
