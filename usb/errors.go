package usb

import (
	"errors"
	"fmt"
)

// DeviceNotFoundError is returned when no device with the requested
// vendor and product ID is attached.
type DeviceNotFoundError struct {
	VendorID  uint16
	ProductID uint16
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("device %04x:%04x not found; is the sensor in bootloader mode?", e.VendorID, e.ProductID)
}

// ConfigurationMismatchError is returned when the device cannot be put in
// the requested configuration: either selecting it fails (Err is set) or
// the device reports another configuration afterwards.
type ConfigurationMismatchError struct {
	Want int
	Got  int
	Err  error
}

func (e *ConfigurationMismatchError) Error() string {
	msg := fmt.Sprintf("configuration mismatch: active configuration is %d, need %d", e.Got, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationMismatchError) Unwrap() error {
	return e.Err
}

// IsDeviceNotFound returns true if err is or wraps a DeviceNotFoundError.
func IsDeviceNotFound(err error) bool {
	var e *DeviceNotFoundError
	return errors.As(err, &e)
}

// IsConfigurationMismatch returns true if err is or wraps a ConfigurationMismatchError.
func IsConfigurationMismatch(err error) bool {
	var e *ConfigurationMismatchError
	return errors.As(err, &e)
}
