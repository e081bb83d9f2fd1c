// Package metrics records upload metrics and exports them in the Prometheus
// text format, for node_exporter's textfile collector.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moffa90/go-kinectfw/bootloader"
)

// NewRegistry creates the registry the upload metrics are registered with.
// Runtime collectors are left out; the process exits right after the upload.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// UploadMetrics holds the metrics of one upload run.
type UploadMetrics struct {
	CommandsTotal *prometheus.CounterVec // labels: cmd
	RepliesTotal  *prometheus.CounterVec // labels: result=ok|warning
	BytesWritten  prometheus.Gauge
	PagesWritten  prometheus.Gauge
	UploadsTotal  *prometheus.CounterVec // labels: result=success|failure, step
	LastDuration  prometheus.Gauge
	LastSuccess   prometheus.Gauge // unix seconds
}

// NewUploadMetrics registers and returns the upload metrics.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	m := &UploadMetrics{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinectfw_commands_total",
			Help: "Command frames sent to the bootloader.",
		}, []string{"cmd"}),
		RepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinectfw_replies_total",
			Help: "Validated status replies by status.",
		}, []string{"result"}),
		BytesWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kinectfw_bytes_written",
			Help: "Firmware bytes acknowledged by the device.",
		}),
		PagesWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kinectfw_pages_written",
			Help: "Firmware pages acknowledged by the device.",
		}),
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinectfw_uploads_total",
			Help: "Upload sessions by outcome and failing step.",
		}, []string{"result", "step"}),
		LastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kinectfw_last_upload_duration_seconds",
			Help: "Duration of the last upload session.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kinectfw_last_success_timestamp_seconds",
			Help: "Time of the last successful upload.",
		}),
	}
	reg.MustRegister(m.CommandsTotal, m.RepliesTotal, m.BytesWritten, m.PagesWritten,
		m.UploadsTotal, m.LastDuration, m.LastSuccess)
	return m
}

// ObserveFrame counts a frame exchanged with the device.
// It is meant to be passed to bootloader.WithFrameCallback.
func (m *UploadMetrics) ObserveFrame(ev bootloader.FrameEvent) {
	switch ev.Direction {
	case bootloader.Sent:
		m.CommandsTotal.WithLabelValues(ev.Command.Cmd.String()).Inc()
	case bootloader.Received:
		result := "ok"
		if ev.Status.Status != 0 {
			result = "warning"
		}
		m.RepliesTotal.WithLabelValues(result).Inc()
	}
}

// ObserveProgress tracks the bytes and pages acknowledged so far.
func (m *UploadMetrics) ObserveProgress(p bootloader.Progress) {
	m.BytesWritten.Set(float64(p.BytesWritten))
	m.PagesWritten.Set(float64(p.Page))
}

// Finish records the outcome of a session.
func (m *UploadMetrics) Finish(res *bootloader.Result, err error) {
	if err != nil {
		step := "unknown"
		var stepErr *bootloader.StepError
		if errors.As(err, &stepErr) {
			step = string(stepErr.Step)
		}
		m.UploadsTotal.WithLabelValues("failure", step).Inc()
		return
	}

	m.UploadsTotal.WithLabelValues("success", "").Inc()
	if res != nil {
		m.LastDuration.Set(res.Elapsed.Seconds())
	}
	m.LastSuccess.SetToCurrentTime()
}

// WriteTextfile writes every metric gathered from g to path atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
