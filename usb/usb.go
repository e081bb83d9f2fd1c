package usb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// Kinect bootloader identifiers and endpoints.
const (
	VendorID  = 0x045E
	ProductID = 0x02AD

	Configuration = 1
	Interface     = 0

	EndpointBulkOut = 0x01
	EndpointBulkIn  = 0x81
)

// Config selects the device and the endpoints used for an upload.
type Config struct {
	// VendorID and ProductID identify the device to open
	VendorID  uint16
	ProductID uint16

	// Configuration is the USB configuration the device must be in
	Configuration int

	// Interface is the interface number claimed for the session
	Interface int

	// OutEndpoint and InEndpoint are endpoint addresses (IN carries bit 7)
	OutEndpoint uint8
	InEndpoint  uint8

	// Timeout bounds every single transfer. Zero waits forever.
	Timeout time.Duration

	// Debug sets the libusb debug level (0 disables)
	Debug int
}

// DefaultConfig returns the configuration of a Kinect in bootloader mode.
func DefaultConfig() Config {
	return Config{
		VendorID:      VendorID,
		ProductID:     ProductID,
		Configuration: Configuration,
		Interface:     Interface,
		OutEndpoint:   EndpointBulkOut,
		InEndpoint:    EndpointBulkIn,
	}
}

// Device is an open bootloader device with its interface claimed.
// Each Write is one bulk OUT transfer and each Read one bulk IN transfer.
type Device struct {
	// release closes the interface, configuration, device and context,
	// in that order
	release []func() error

	out *gousb.OutEndpoint
	in  *gousb.InEndpoint

	timeout time.Duration
}

// Open finds the device, makes sure it is in the requested configuration,
// claims the interface and opens both bulk endpoints.
//
// Example:
//
//	dev, err := usb.Open(usb.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
func Open(c Config) (*Device, error) {
	ctx := gousb.NewContext()
	if c.Debug > 0 {
		ctx.Debug(c.Debug)
	}

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(c.VendorID), gousb.ID(c.ProductID))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("open device %04x:%04x: %w", c.VendorID, c.ProductID, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, &DeviceNotFoundError{VendorID: c.VendorID, ProductID: c.ProductID}
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("enable kernel driver auto-detach: %w", err)
	}

	cfg, err := ensureConfiguration(dev, c.Configuration)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}

	intf, err := cfg.Interface(c.Interface, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim interface %d: %w", c.Interface, err)
	}

	d := &Device{
		release: []func() error{
			func() error { intf.Close(); return nil },
			wrapClose("release configuration", cfg.Close),
			wrapClose("close device", dev.Close),
			wrapClose("close usb context", ctx.Close),
		},
		timeout: c.Timeout,
	}

	d.out, err = intf.OutEndpoint(endpointNumber(c.OutEndpoint))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open bulk out endpoint 0x%02x: %w", c.OutEndpoint, err)
	}

	d.in, err = intf.InEndpoint(endpointNumber(c.InEndpoint))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open bulk in endpoint 0x%02x: %w", c.InEndpoint, err)
	}

	return d, nil
}

// configurer is the part of *gousb.Device that ensureConfiguration uses.
type configurer interface {
	ActiveConfigNum() (int, error)
	Config(num int) (*gousb.Config, error)
}

// ensureConfiguration reads the active configuration, selects want and
// reads the active configuration again. The device must report want
// afterwards.
func ensureConfiguration(dev configurer, want int) (*gousb.Config, error) {
	before, err := dev.ActiveConfigNum()
	if err != nil {
		return nil, fmt.Errorf("read active configuration: %w", err)
	}

	cfg, err := dev.Config(want)
	if err != nil {
		return nil, &ConfigurationMismatchError{Want: want, Got: before, Err: err}
	}

	after, err := dev.ActiveConfigNum()
	if err != nil {
		closeConfig(cfg)
		return nil, fmt.Errorf("read active configuration: %w", err)
	}
	if after != want {
		closeConfig(cfg)
		return nil, &ConfigurationMismatchError{Want: want, Got: after}
	}

	return cfg, nil
}

func closeConfig(cfg *gousb.Config) {
	if cfg != nil {
		_ = cfg.Close()
	}
}

func endpointNumber(addr uint8) int {
	return int(addr & 0x0F)
}

// Write sends p in one bulk OUT transfer and returns the bytes transferred.
func (d *Device) Write(p []byte) (int, error) {
	if d.timeout <= 0 {
		return d.out.Write(p)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.out.WriteContext(ctx, p)
}

// Read receives one bulk IN transfer into p and returns the bytes transferred.
func (d *Device) Read(p []byte) (int, error) {
	if d.timeout <= 0 {
		return d.in.Read(p)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.in.ReadContext(ctx, p)
}

// Close releases the interface, the configuration, the device and the
// libusb context, in that order. Every handle is released even when an
// earlier one fails to close.
func (d *Device) Close() error {
	var errs []error
	for _, release := range d.release {
		if err := release(); err != nil {
			errs = append(errs, err)
		}
	}
	d.release = nil
	return errors.Join(errs...)
}

func wrapClose(what string, close func() error) func() error {
	return func() error {
		if err := close(); err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		return nil
	}
}
