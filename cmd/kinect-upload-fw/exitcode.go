package main

import (
	"errors"
	"syscall"

	"github.com/google/gousb"
)

// libusb error codes, as positive exit statuses.
const (
	exitIO       = 1
	exitNoDevice = 4
	exitTimeout  = 7
	exitOverflow = 8
	exitPipe     = 9
)

// exitCode maps err to the process exit status: the errno of an OS error,
// the libusb error code of a transport error, 1 for anything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return int(errno)
	}

	var usbErr gousb.Error
	if errors.As(err, &usbErr) && usbErr != 0 {
		code := int(usbErr)
		if code < 0 {
			code = -code
		}
		return code
	}

	// libusb_bulk_transfer reports these transfer states as error codes.
	var status gousb.TransferStatus
	if errors.As(err, &status) {
		switch status {
		case gousb.TransferTimedOut:
			return exitTimeout
		case gousb.TransferStall:
			return exitPipe
		case gousb.TransferNoDevice:
			return exitNoDevice
		case gousb.TransferOverflow:
			return exitOverflow
		}
		return exitIO
	}

	return 1
}
