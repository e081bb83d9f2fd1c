package logging

import (
	"go.uber.org/zap"

	"github.com/moffa90/go-kinectfw/bootloader"
)

// BootloaderLogger adapts a zap logger to bootloader.Logger.
type BootloaderLogger struct {
	s *zap.SugaredLogger
}

var _ bootloader.Logger = (*BootloaderLogger)(nil)

// NewBootloaderLogger returns a bootloader.Logger that writes through l.
// Key-value pairs become structured fields.
func NewBootloaderLogger(l *zap.Logger) *BootloaderLogger {
	return &BootloaderLogger{s: l.WithOptions(zap.AddCallerSkip(2)).Sugar()}
}

func (b *BootloaderLogger) Debug(msg string, keysAndValues ...interface{}) {
	b.s.Debugw(msg, keysAndValues...)
}

func (b *BootloaderLogger) Info(msg string, keysAndValues ...interface{}) {
	b.s.Infow(msg, keysAndValues...)
}

func (b *BootloaderLogger) Error(msg string, keysAndValues ...interface{}) {
	b.s.Errorw(msg, keysAndValues...)
}
