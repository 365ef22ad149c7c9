package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/metrics"
	"github.com/zMarques/albion-network/internal/queue"
	"github.com/zMarques/albion-network/pkg/decoder"
)

// Pump is the single consumer of the fan-in queue. It owns the decoder: no
// other goroutine ever calls it.
type Pump struct {
	queue       *queue.Queue[core.Payload]
	decoder     decoder.Decoder
	decoderName string
	handler     Handler
	metrics     *Metrics
	logger      *slog.Logger
}

// NewPump creates a pump delivering the messages of dec to handler.
func NewPump(q *queue.Queue[core.Payload], dec decoder.Decoder, decoderName string, handler Handler, m *Metrics, logger *slog.Logger) *Pump {
	if m == nil {
		m = NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pump{
		queue:       q,
		decoder:     dec,
		decoderName: decoderName,
		handler:     handler,
		metrics:     m,
		logger:      logger,
	}
}

// Run processes payloads in queue order until the queue is closed and drained
// or ctx is cancelled. Payloads still queued at cancellation are discarded.
func (p *Pump) Run(ctx context.Context) {
	p.logger.Debug("decode pump started", "decoder", p.decoderName)
	defer p.logger.Debug("decode pump stopped", "decoder", p.decoderName)

	for {
		select {
		case <-ctx.Done():
			return

		case payload, ok := <-p.queue.Out():
			if !ok {
				// Queue closed, every worker has exited
				return
			}
			metrics.QueueDepth.Set(float64(p.queue.Len()))
			p.process(payload)
		}
	}
}

// process decodes one payload and delivers its messages in emission order
// before returning.
func (p *Pump) process(payload core.Payload) {
	start := time.Now()

	p.metrics.Payloads.Add(1)
	metrics.PumpPayloadsTotal.WithLabelValues(payload.Interface).Inc()

	msgs := p.decoder.Decode(payload.Data)
	for _, msg := range msgs {
		p.handler(msg)
	}

	n := len(msgs)
	p.metrics.Messages.Add(uint64(n))
	metrics.PumpMessagesTotal.WithLabelValues(p.decoderName).Add(float64(n))
	metrics.PumpDecodeSeconds.Observe(time.Since(start).Seconds())

	if n == 0 {
		p.logger.Debug("payload produced no messages", "interface", payload.Interface,
			"flow", payload.Flow.String(), "size", len(payload.Data))
	}
}
