package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-kinectfw/bootloader"
	"github.com/moffa90/go-kinectfw/protocol"
)

func TestObserveFrame(t *testing.T) {
	m := NewUploadMetrics(NewRegistry())

	events := []bootloader.FrameEvent{
		{Direction: bootloader.Sent, Command: protocol.BuildInitCmd(1)},
		{Direction: bootloader.Received, Status: protocol.NewStatus(1, 0)},
		{Direction: bootloader.Sent, Command: protocol.BuildWriteCmd(2, 100, protocol.BaseAddress)},
		{Direction: bootloader.Received, Status: protocol.NewStatus(2, 5)},
		{Direction: bootloader.Sent, Command: protocol.BuildFinalizeCmd(3)},
	}
	for _, ev := range events {
		m.ObserveFrame(ev)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("INIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("WRITE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("FINALIZE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesTotal.WithLabelValues("warning")))
}

func TestObserveProgress(t *testing.T) {
	m := NewUploadMetrics(NewRegistry())

	m.ObserveProgress(bootloader.Progress{Page: 2, BytesWritten: 32768})

	assert.Equal(t, 32768.0, testutil.ToFloat64(m.BytesWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesWritten))
}

func TestFinish(t *testing.T) {
	tests := []struct {
		name    string
		res     *bootloader.Result
		err     error
		label   []string
		success bool
	}{
		{
			name:    "success",
			res:     &bootloader.Result{Elapsed: 1500 * time.Millisecond},
			label:   []string{"success", ""},
			success: true,
		},
		{
			name:  "step failure",
			err:   &bootloader.StepError{Step: bootloader.StepReadWriteReply, Err: errors.New("stall")},
			label: []string{"failure", "read write reply"},
		},
		{
			name:  "other failure",
			err:   errors.New("device not found"),
			label: []string{"failure", "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewUploadMetrics(NewRegistry())
			m.Finish(tt.res, tt.err)

			assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues(tt.label...)))
			if tt.success {
				assert.Equal(t, 1.5, testutil.ToFloat64(m.LastDuration))
				assert.Positive(t, testutil.ToFloat64(m.LastSuccess))
			} else {
				assert.Zero(t, testutil.ToFloat64(m.LastSuccess))
			}
		})
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := NewRegistry()
	m := NewUploadMetrics(reg)
	m.ObserveFrame(bootloader.FrameEvent{Direction: bootloader.Sent, Command: protocol.BuildInitCmd(1)})

	path := filepath.Join(t.TempDir(), "kinectfw.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `kinectfw_commands_total{cmd="INIT"} 1`)
}

func TestWriteTextfileBadDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), NewRegistry())
	assert.ErrorContains(t, err, "write metrics textfile")
}
