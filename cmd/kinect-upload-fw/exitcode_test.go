package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"

	"github.com/moffa90/go-kinectfw/bootloader"
	"github.com/moffa90/go-kinectfw/firmware"
	"github.com/moffa90/go-kinectfw/protocol"
	"github.com/moffa90/go-kinectfw/usb"
)

func TestExitCode(t *testing.T) {
	stepErr := func(err error) error {
		return fmt.Errorf("upload firmware.bin: %w", &bootloader.StepError{Step: bootloader.StepSendPayload, Err: err})
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"missing firmware", &firmware.OpenError{Path: "firmware.bin", Err: &os.PathError{Op: "open", Path: "firmware.bin", Err: syscall.ENOENT}}, 2},
		{"permission denied", &firmware.OpenError{Path: "firmware.bin", Err: syscall.EACCES}, 13},
		{"libusb access error", fmt.Errorf("claim interface 0: %w", gousb.ErrorAccess), 3},
		{"libusb busy", gousb.ErrorBusy, 6},
		{"transfer timeout", stepErr(gousb.TransferTimedOut), 7},
		{"transfer stall", stepErr(gousb.TransferStall), 9},
		{"device gone", stepErr(gousb.TransferNoDevice), 4},
		{"transfer error", stepErr(gousb.TransferError), 1},
		{"device not found", &usb.DeviceNotFoundError{VendorID: 0x045E, ProductID: 0x02AD}, 1},
		{"configuration mismatch", &usb.ConfigurationMismatchError{Want: 1, Got: 2}, 1},
		{"short transfer", stepErr(&bootloader.TransferSizeMismatchError{Expected: 512, Actual: 0}), 1},
		{"protocol mismatch", stepErr(&protocol.ProtocolMismatchError{Field: "seq", Expected: 3, Actual: 4}), 1},
		{"plain error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
