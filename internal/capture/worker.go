package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/filter"
	"github.com/zMarques/albion-network/internal/metrics"
	"github.com/zMarques/albion-network/internal/netif"
	"github.com/zMarques/albion-network/internal/queue"
)

// WorkerConfig describes one capture worker.
type WorkerConfig struct {
	Interface netif.Interface
	Source    Source
	Options   Options
	// TargetPort selects the UDP datagrams to keep.
	TargetPort uint16
	// MaxFrameSize cuts longer frames before filtering.
	MaxFrameSize int
	Queue        *queue.Queue[core.Payload]
	Logger       *slog.Logger
}

// Worker captures frames on one interface. It owns its handle and its
// filter; nothing else reads from either.
type Worker struct {
	iface    netif.Interface
	source   Source
	opts     Options
	maxFrame int
	filter   *filter.Filter
	queue    *queue.Queue[core.Payload]
	logger   *slog.Logger
}

// NewWorker creates a worker. The capture handle is opened by Run.
func NewWorker(cfg WorkerConfig) *Worker {
	maxFrame := cfg.MaxFrameSize
	if maxFrame <= 0 {
		maxFrame = DefaultSnapLen
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		iface:    cfg.Interface,
		source:   cfg.Source,
		opts:     cfg.Options,
		maxFrame: maxFrame,
		filter:   filter.New(cfg.TargetPort),
		queue:    cfg.Queue,
		logger:   logger.With("interface", cfg.Interface.Name, "source", cfg.Source.Name()),
	}
}

// Interface returns the interface this worker captures on.
func (w *Worker) Interface() netif.Interface {
	return w.iface
}

// Run opens the capture handle and reads frames until ctx is cancelled, the
// queue is closed or the handle reports core.ErrHandleClosed. A failure to
// open the handle is returned wrapping core.ErrCaptureOpen without capturing
// anything. Read errors are
// skipped.
func (w *Worker) Run(ctx context.Context) error {
	name := w.iface.Name

	handle, err := w.source.Open(w.iface, w.opts)
	if err != nil {
		metrics.CaptureOpenFailuresTotal.WithLabelValues(name, w.source.Name()).Inc()
		w.logger.Warn("failed to open capture handle, interface skipped", "error", err)
		return fmt.Errorf("%w: %s: %w", core.ErrCaptureOpen, name, err)
	}
	// The handle is closed only after the read loop has returned.
	defer func() {
		if err := handle.Close(); err != nil {
			w.logger.Debug("failed to close capture handle", "error", err)
		}
	}()

	metrics.CaptureWorkersActive.Inc()
	defer metrics.CaptureWorkersActive.Dec()

	w.logger.Info("capture started", "snap_len", w.opts.SnapLen, "kernel_filter", len(w.opts.Filter) > 0)

	var (
		frames    = metrics.CaptureFramesTotal.WithLabelValues(name)
		truncated = metrics.CaptureTruncatedTotal.WithLabelValues(name)
		readErrs  = metrics.CaptureReadErrorsTotal.WithLabelValues(name)
		matched   = metrics.FilterMatchedTotal.WithLabelValues(name)
	)

	for {
		// Check for shutdown before each blocking read.
		select {
		case <-ctx.Done():
			w.logger.Info("capture stopped")
			return nil
		default:
		}

		data, ci, err := handle.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("capture stopped")
				return nil
			}
			if errors.Is(err, core.ErrHandleClosed) {
				w.logger.Warn("capture handle closed")
				return err
			}
			if !errors.Is(err, core.ErrReadTimeout) {
				readErrs.Inc()
				w.logger.Debug("capture read failed", "error", err)
			}
			continue
		}
		frames.Inc()

		if len(data) > w.maxFrame {
			data = data[:w.maxFrame]
			truncated.Inc()
		}

		verdict, flow, payload := w.filter.Classify(data)
		if verdict != filter.Matched {
			metrics.FilterDropsTotal.WithLabelValues(name, verdict.String()).Inc()
			continue
		}
		matched.Inc()

		ts := ci.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		p := core.Payload{
			Interface: name,
			Timestamp: ts,
			Flow:      flow,
			Data:      filter.Copy(payload),
		}

		if err := w.queue.Push(ctx, p); err != nil {
			switch {
			case errors.Is(err, core.ErrQueueFull):
				// Counted by the queue drop hook.
				continue
			case errors.Is(err, core.ErrQueueClosed):
				w.logger.Info("queue closed, capture stopped")
				return nil
			default:
				w.logger.Info("capture stopped")
				return nil
			}
		}
	}
}
