// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CaptureFramesTotal counts frames read from each interface
	CaptureFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_capture_frames_total",
			Help: "Total number of frames read from capture handles",
		},
		[]string{"interface"},
	)

	// CaptureTruncatedTotal counts frames cut down to the maximum frame size
	CaptureTruncatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_capture_truncated_total",
			Help: "Total number of frames longer than the maximum frame size",
		},
		[]string{"interface"},
	)

	// CaptureReadErrorsTotal counts failed reads, poll timeouts excluded
	CaptureReadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_capture_read_errors_total",
			Help: "Total number of capture read errors",
		},
		[]string{"interface"},
	)

	// CaptureOpenFailuresTotal counts interfaces whose capture handle could not be opened
	CaptureOpenFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_capture_open_failures_total",
			Help: "Total number of capture handles that failed to open",
		},
		[]string{"interface", "source"},
	)

	// CaptureWorkersActive tracks running capture workers
	CaptureWorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "albion_network_capture_workers_active",
			Help: "Number of capture workers currently reading frames",
		},
	)

	// FilterDropsTotal counts frames rejected by the frame filter, by reason
	FilterDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_filter_drops_total",
			Help: "Total number of frames rejected by the frame filter",
		},
		[]string{"interface", "reason"},
	)

	// FilterMatchedTotal counts UDP payloads accepted by the frame filter
	FilterMatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_filter_matched_total",
			Help: "Total number of frames carrying a target port UDP datagram",
		},
		[]string{"interface"},
	)

	// QueueDropsTotal counts payloads discarded by the fan-in queue overload policy
	QueueDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_queue_drops_total",
			Help: "Total number of payloads discarded because the queue was full",
		},
		[]string{"policy"},
	)

	// QueueDepth tracks payloads waiting for the decode pump
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "albion_network_queue_depth",
			Help: "Number of payloads waiting in the fan-in queue",
		},
	)

	// PumpPayloadsTotal counts payloads handed to the decoder
	PumpPayloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_pump_payloads_total",
			Help: "Total number of payloads passed to the decoder",
		},
		[]string{"interface"},
	)

	// PumpMessagesTotal counts messages returned by the decoder
	PumpMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_pump_messages_total",
			Help: "Total number of decoded messages delivered to the handler",
		},
		[]string{"decoder"},
	)

	// PumpDecodeSeconds measures time spent in the decoder and handler per payload
	PumpDecodeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "albion_network_pump_decode_seconds",
			Help:    "Time spent decoding one payload and delivering its messages",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20), // 1µs to ~1s
		},
	)

	// ReporterMessagesTotal counts messages written by the reporter, by message type
	ReporterMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albion_network_reporter_messages_total",
			Help: "Total number of decoded messages reported",
		},
		[]string{"type"},
	)

	// SnifferStatus tracks the sniffer lifecycle state
	SnifferStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "albion_network_sniffer_status",
			Help: "Current status of the sniffer (0=stopped, 1=running)",
		},
	)
)

// SnifferStatusValue represents sniffer status as a numeric value for Prometheus gauge
const (
	SnifferStatusStopped = 0
	SnifferStatusRunning = 1
)
