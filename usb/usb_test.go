package usb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, uint16(0x045E), c.VendorID)
	assert.Equal(t, uint16(0x02AD), c.ProductID)
	assert.Equal(t, 1, c.Configuration)
	assert.Equal(t, 0, c.Interface)
	assert.Equal(t, uint8(0x01), c.OutEndpoint)
	assert.Equal(t, uint8(0x81), c.InEndpoint)
	assert.Zero(t, c.Timeout, "transfers are unbounded by default")
}

func TestEndpointNumber(t *testing.T) {
	tests := []struct {
		addr uint8
		want int
	}{
		{0x01, 1},
		{0x81, 1},
		{0x82, 2},
		{0x0F, 15},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("0x%02x", tt.addr), func(t *testing.T) {
			assert.Equal(t, tt.want, endpointNumber(tt.addr))
		})
	}
}

func TestErrors(t *testing.T) {
	notFound := &DeviceNotFoundError{VendorID: 0x045E, ProductID: 0x02AD}
	assert.Contains(t, notFound.Error(), "045e:02ad not found")
	assert.True(t, IsDeviceNotFound(fmt.Errorf("open: %w", notFound)))
	assert.False(t, IsConfigurationMismatch(notFound))

	mismatch := &ConfigurationMismatchError{Want: 1, Got: 2}
	assert.Equal(t, "configuration mismatch: active configuration is 2, need 1", mismatch.Error())
	assert.True(t, IsConfigurationMismatch(fmt.Errorf("open: %w", mismatch)))
	assert.False(t, IsDeviceNotFound(mismatch))
	assert.False(t, IsDeviceNotFound(nil))
}

func TestCloseIdempotent(t *testing.T) {
	d := &Device{}
	assert.NoError(t, d.Close())
	assert.NoError(t, d.Close())
}

// fakeConfigurer reports the active configurations in order and records
// which configuration was selected.
type fakeConfigurer struct {
	active    []int
	activeErr error
	configErr error

	reads    int
	selected []int
}

func (f *fakeConfigurer) ActiveConfigNum() (int, error) {
	if f.activeErr != nil && f.reads > 0 {
		return 0, f.activeErr
	}
	n := f.active[min(f.reads, len(f.active)-1)]
	f.reads++
	return n, nil
}

func (f *fakeConfigurer) Config(num int) (*gousb.Config, error) {
	f.selected = append(f.selected, num)
	if f.configErr != nil {
		return nil, f.configErr
	}
	return nil, nil
}

func TestEnsureConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		dev       *fakeConfigurer
		wantErr   bool
		mismatch  bool
		wantGot   int
		wantCause error
		wantReads int
	}{
		{
			name:      "already in configuration 1",
			dev:       &fakeConfigurer{active: []int{1, 1}},
			wantReads: 2,
		},
		{
			name:      "switched from configuration 2",
			dev:       &fakeConfigurer{active: []int{2, 1}},
			wantReads: 2,
		},
		{
			name:      "selecting fails",
			dev:       &fakeConfigurer{active: []int{2}, configErr: gousb.ErrorBusy},
			wantErr:   true,
			mismatch:  true,
			wantGot:   2,
			wantCause: gousb.ErrorBusy,
			wantReads: 1,
		},
		{
			name:      "device keeps another configuration",
			dev:       &fakeConfigurer{active: []int{2, 2}},
			wantErr:   true,
			mismatch:  true,
			wantGot:   2,
			wantReads: 2,
		},
		{
			name:      "reading back fails",
			dev:       &fakeConfigurer{active: []int{1}, activeErr: gousb.ErrorNoDevice},
			wantErr:   true,
			wantCause: gousb.ErrorNoDevice,
			wantReads: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ensureConfiguration(tt.dev, 1)

			assert.Equal(t, []int{1}, tt.dev.selected)
			assert.Equal(t, tt.wantReads, tt.dev.reads)

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.mismatch, IsConfigurationMismatch(err))
			if tt.mismatch {
				var cm *ConfigurationMismatchError
				require.ErrorAs(t, err, &cm)
				assert.Equal(t, 1, cm.Want)
				assert.Equal(t, tt.wantGot, cm.Got)
			}
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}
		})
	}
}

func TestConfigurationMismatchWrapsCause(t *testing.T) {
	err := &ConfigurationMismatchError{Want: 1, Got: 0, Err: gousb.ErrorBusy}

	assert.Contains(t, err.Error(), "active configuration is 0, need 1: ")
	assert.ErrorIs(t, err, gousb.ErrorBusy)
}

func TestCloseReleasesEverything(t *testing.T) {
	errCfg := errors.New("config busy")
	errCtx := errors.New("context busy")
	var order []string

	d := &Device{release: []func() error{
		func() error { order = append(order, "interface"); return nil },
		wrapClose("release configuration", func() error { order = append(order, "config"); return errCfg }),
		wrapClose("close device", func() error { order = append(order, "device"); return nil }),
		wrapClose("close usb context", func() error { order = append(order, "context"); return errCtx }),
	}}

	err := d.Close()
	require.Error(t, err)
	assert.Equal(t, []string{"interface", "config", "device", "context"}, order)
	assert.ErrorIs(t, err, errCfg)
	assert.ErrorIs(t, err, errCtx)
	assert.Contains(t, err.Error(), "release configuration: config busy")

	assert.NoError(t, d.Close(), "handles are released only once")
	assert.Len(t, order, 4)
}
