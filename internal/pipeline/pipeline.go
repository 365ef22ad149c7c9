// Package pipeline implements the capture pipeline engine: one capture worker
// per interface feeding a single decode pump through the fan-in queue.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/metrics"
	"github.com/zMarques/albion-network/internal/netif"
	"github.com/zMarques/albion-network/internal/queue"
	"github.com/zMarques/albion-network/pkg/decoder"
)

// Handler receives every decoded message on the pump goroutine.
type Handler func(decoder.Message)

// Pipeline wires capture workers, the fan-in queue and the decode pump.
type Pipeline struct {
	workers []*capture.Worker
	queue   *queue.Queue[core.Payload]
	pump    *Pump
	metrics *Metrics
	logger  *slog.Logger

	// Runtime state
	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
}

// Config contains pipeline configuration.
type Config struct {
	Interfaces    []netif.Interface
	Source        capture.Source
	Options       capture.Options
	TargetPort    uint16
	MaxFrameSize  int
	QueueCapacity int
	DropPolicy    queue.Policy
	Decoder       decoder.Decoder
	DecoderName   string
	Handler       Handler
	Logger        *slog.Logger
}

// New creates a pipeline. Use Builder to get the configuration validated.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := cfg.DropPolicy.String()
	q := queue.New[core.Payload](cfg.QueueCapacity, cfg.DropPolicy,
		queue.WithDropHook(func() {
			metrics.QueueDropsTotal.WithLabelValues(policy).Inc()
		}))

	m := NewMetrics()

	workers := make([]*capture.Worker, 0, len(cfg.Interfaces))
	for _, iface := range cfg.Interfaces {
		workers = append(workers, capture.NewWorker(capture.WorkerConfig{
			Interface:    iface,
			Source:       cfg.Source,
			Options:      cfg.Options,
			TargetPort:   cfg.TargetPort,
			MaxFrameSize: cfg.MaxFrameSize,
			Queue:        q,
			Logger:       logger,
		}))
	}

	return &Pipeline{
		workers: workers,
		queue:   q,
		pump:    NewPump(q, cfg.Decoder, cfg.DecoderName, cfg.Handler, m, logger),
		metrics: m,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start spawns one goroutine per capture worker and the pump goroutine, then
// returns. The pipeline runs until ctx is cancelled, Stop is called or every
// worker has exited and the queue is drained.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return core.ErrAlreadyRunning
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)

	p.logger.Info("pipeline starting", "workers", len(p.workers), "queue_capacity", p.queue.Cap(),
		"drop_policy", p.queue.Policy().String())
	metrics.SnifferStatus.Set(metrics.SnifferStatusRunning)

	for _, w := range p.workers {
		p.wg.Add(1)
		p.metrics.WorkersStarted.Add(1)
		go func(w *capture.Worker) {
			defer p.wg.Done()
			// Only workers that never captured count as failed.
			if err := w.Run(ctx); errors.Is(err, core.ErrCaptureOpen) {
				p.metrics.WorkersFailed.Add(1)
			}
		}(w)
	}

	// The queue is closed only once no producer is left.
	go func() {
		p.wg.Wait()
		p.queue.Close()
	}()

	go func() {
		p.pump.Run(ctx)
		p.wg.Wait()
		p.cancel()
		metrics.SnifferStatus.Set(metrics.SnifferStatusStopped)
		p.logger.Info("pipeline stopped")
		close(p.done)
	}()

	return nil
}

// Stop cancels every worker and the pump and waits for them to exit. It must
// not be called from the handler, which runs on the pump goroutine; use Cancel
// there.
func (p *Pipeline) Stop() {
	if p.Cancel() {
		<-p.done
	}
}

// Cancel asks every worker and the pump to exit and returns without waiting.
// It reports whether the pipeline had been started.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	started, cancel := p.started, p.cancel
	p.mu.Unlock()
	if !started {
		return false
	}

	p.logger.Info("pipeline stopping")
	cancel()
	return true
}

// Wait blocks until the pump and every worker have exited.
func (p *Pipeline) Wait() {
	<-p.done
}

// Done is closed when the pipeline has fully stopped.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	return Stats{
		WorkersStarted: p.metrics.WorkersStarted.Load(),
		WorkersFailed:  p.metrics.WorkersFailed.Load(),
		Payloads:       p.metrics.Payloads.Load(),
		Messages:       p.metrics.Messages.Load(),
		QueueDepth:     p.queue.Len(),
	}
}

// Stats represents pipeline statistics.
type Stats struct {
	WorkersStarted uint64
	WorkersFailed  uint64
	Payloads       uint64
	Messages       uint64
	QueueDepth     int
}
