// Package sniffer observes live traffic on every non-loopback interface of the
// host and delivers the messages decoded from UDP port 5056 payloads to a
// handler.
package sniffer

import (
	"context"
	"fmt"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/capture/source"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/netif"
	"github.com/zMarques/albion-network/internal/pipeline"
	"github.com/zMarques/albion-network/internal/queue"
	"github.com/zMarques/albion-network/pkg/decoder"
)

const (
	// TargetPort is the UDP port whose datagrams are decoded.
	TargetPort = 5056
	// MaxFrameSize bounds every captured frame; longer frames are cut.
	MaxFrameSize = 1600
)

// Errors returned by Listen.
var (
	ErrEnumerate    = core.ErrEnumerate
	ErrNoInterfaces = core.ErrNoInterfaces
	ErrInvalid      = core.ErrConfigInvalid
)

// Handler receives decoded messages. It is called from a single goroutine,
// in payload order per interface, and must not block for long: capture
// backs up behind it. A handler that wants to end capture must call
// Sniffer.Cancel, never Stop: Stop waits for the handler's own goroutine.
type Handler func(decoder.Message)

// Sniffer is a running capture pipeline.
type Sniffer struct {
	pipeline   *pipeline.Pipeline
	interfaces []string
}

// Stats is a snapshot of sniffer counters.
type Stats struct {
	// Workers is the number of interfaces a capture was attempted on.
	Workers int
	// FailedWorkers counts interfaces whose capture could not be opened.
	FailedWorkers int
	Payloads      uint64
	Messages      uint64
	QueueDepth    int
}

// Listen enumerates the host interfaces, starts one capture worker per
// interface and a single decode pump, and returns without blocking. Failing
// to enumerate interfaces, or finding none besides loopback, is returned
// before anything is started. An interface whose capture cannot be opened is
// skipped.
//
// The sniffer runs until ctx is cancelled or Stop is called.
func Listen(ctx context.Context, handler Handler, opts ...Option) (*Sniffer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if handler == nil {
		return nil, fmt.Errorf("%w: handler is required", ErrInvalid)
	}

	policy, err := queue.ParsePolicy(cfg.dropPolicy)
	if err != nil {
		return nil, err
	}

	src := cfg.source
	if src == nil {
		if src, err = source.New(cfg.sourceName); err != nil {
			return nil, err
		}
	}

	dec := cfg.decoder
	if dec == nil {
		if dec, err = decoder.New(cfg.decoderName); err != nil {
			return nil, err
		}
	}

	captureOpts := capture.Options{
		SnapLen:     cfg.maxFrameSize,
		Promiscuous: cfg.promiscuous,
		PollTimeout: cfg.pollTimeout,
		BufferSize:  cfg.bufferSize,
	}
	if cfg.kernelFilter {
		if captureOpts.Filter, err = capture.PortFilter(cfg.targetPort, cfg.maxFrameSize); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	ifaces, err := cfg.interfaces(netif.Options{Include: cfg.include, Exclude: cfg.exclude})
	if err != nil {
		return nil, err
	}

	p, err := pipeline.NewBuilder().
		WithInterfaces(ifaces...).
		WithSource(src).
		WithOptions(captureOpts).
		WithTargetPort(cfg.targetPort).
		WithMaxFrameSize(cfg.maxFrameSize).
		WithQueue(cfg.queueCapacity, policy).
		WithDecoder(cfg.decoderName, dec).
		WithHandler(pipeline.Handler(handler)).
		WithLogger(cfg.logger).
		Build()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	cfg.logger.Info("sniffer listening", "interfaces", names, "port", cfg.targetPort,
		"source", src.Name(), "decoder", cfg.decoderName)

	if err := p.Start(ctx); err != nil {
		return nil, err
	}
	return &Sniffer{pipeline: p, interfaces: names}, nil
}

// Stop stops capturing and decoding and waits for every goroutine to exit.
// It is safe to call more than once.
func (s *Sniffer) Stop() {
	s.pipeline.Stop()
}

// Cancel asks the sniffer to stop and returns without waiting. Unlike Stop it
// may be called from the Handler; use Done or Wait to observe the exit.
func (s *Sniffer) Cancel() {
	s.pipeline.Cancel()
}

// Wait blocks until the sniffer has stopped, either through Stop, context
// cancellation or because no capture worker is left.
func (s *Sniffer) Wait() {
	s.pipeline.Wait()
}

// Done is closed once the sniffer has stopped.
func (s *Sniffer) Done() <-chan struct{} {
	return s.pipeline.Done()
}

// Interfaces returns the names of the interfaces captured on.
func (s *Sniffer) Interfaces() []string {
	return append([]string(nil), s.interfaces...)
}

// Stats returns a snapshot of the sniffer counters.
func (s *Sniffer) Stats() Stats {
	st := s.pipeline.Stats()
	return Stats{
		Workers:       int(st.WorkersStarted),
		FailedWorkers: int(st.WorkersFailed),
		Payloads:      st.Payloads,
		Messages:      st.Messages,
		QueueDepth:    st.QueueDepth,
	}
}
