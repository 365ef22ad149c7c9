package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/netif"
	"github.com/zMarques/albion-network/internal/queue"
	"github.com/zMarques/albion-network/pkg/decoder"
)

// Builder provides a fluent interface for building pipelines.
// This is an alternative to using Config directly.
type Builder struct {
	config Config
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			Options:       capture.DefaultOptions(),
			TargetPort:    5056,
			MaxFrameSize:  capture.DefaultSnapLen,
			QueueCapacity: queue.DefaultCapacity,
			DropPolicy:    queue.Block,
			Decoder:       decoder.Raw{},
			DecoderName:   decoder.RawName,
		},
	}
}

// WithInterfaces sets the interfaces to capture on.
func (b *Builder) WithInterfaces(ifaces ...netif.Interface) *Builder {
	b.config.Interfaces = ifaces
	return b
}

// WithSource sets the capture source.
func (b *Builder) WithSource(src capture.Source) *Builder {
	b.config.Source = src
	return b
}

// WithOptions sets the capture handle options.
func (b *Builder) WithOptions(opts capture.Options) *Builder {
	b.config.Options = opts
	return b
}

// WithTargetPort sets the UDP port to keep.
func (b *Builder) WithTargetPort(port uint16) *Builder {
	b.config.TargetPort = port
	return b
}

// WithMaxFrameSize sets the frame size bound.
func (b *Builder) WithMaxFrameSize(size int) *Builder {
	b.config.MaxFrameSize = size
	return b
}

// WithQueue sets the fan-in queue capacity and overload policy.
func (b *Builder) WithQueue(capacity int, policy queue.Policy) *Builder {
	b.config.QueueCapacity = capacity
	b.config.DropPolicy = policy
	return b
}

// WithDecoder sets the decoder and the name it is reported under.
func (b *Builder) WithDecoder(name string, d decoder.Decoder) *Builder {
	b.config.DecoderName = name
	b.config.Decoder = d
	return b
}

// WithHandler sets the message handler.
func (b *Builder) WithHandler(h Handler) *Builder {
	b.config.Handler = h
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.config.Logger = l
	return b
}

// Build validates the configuration and creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	c := b.config
	switch {
	case len(c.Interfaces) == 0:
		return nil, core.ErrNoInterfaces
	case c.Source == nil:
		return nil, fmt.Errorf("%w: capture source is required", core.ErrConfigInvalid)
	case c.Decoder == nil:
		return nil, fmt.Errorf("%w: decoder is required", core.ErrConfigInvalid)
	case c.Handler == nil:
		return nil, fmt.Errorf("%w: handler is required", core.ErrConfigInvalid)
	case c.MaxFrameSize <= 0:
		return nil, fmt.Errorf("%w: max frame size must be positive", core.ErrConfigInvalid)
	case c.TargetPort == 0:
		return nil, fmt.Errorf("%w: target port must be non-zero", core.ErrConfigInvalid)
	}
	return New(c), nil
}
