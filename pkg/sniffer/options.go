package sniffer

import (
	"log/slog"
	"time"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/capture/source"
	"github.com/zMarques/albion-network/internal/netif"
	"github.com/zMarques/albion-network/internal/queue"
	"github.com/zMarques/albion-network/pkg/decoder"
)

// Option configures Listen.
type Option func(*config)

type config struct {
	logger *slog.Logger

	targetPort   uint16
	maxFrameSize int

	sourceName   string
	promiscuous  bool
	pollTimeout  time.Duration
	bufferSize   int
	kernelFilter bool
	include      []string
	exclude      []string

	queueCapacity int
	dropPolicy    string

	decoderName string
	decoder     decoder.Decoder

	// Overridable for tests.
	source     capture.Source
	interfaces func(netif.Options) ([]netif.Interface, error)
}

func defaultConfig() *config {
	return &config{
		logger:        slog.Default(),
		targetPort:    TargetPort,
		maxFrameSize:  MaxFrameSize,
		sourceName:    source.Default,
		promiscuous:   true,
		pollTimeout:   capture.DefaultPollTimeout,
		bufferSize:    capture.DefaultBufferSize,
		kernelFilter:  true,
		queueCapacity: queue.DefaultCapacity,
		dropPolicy:    queue.Block.String(),
		decoderName:   decoder.RawName,
		interfaces:    netif.List,
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTargetPort overrides the UDP port whose traffic is decoded.
func WithTargetPort(port uint16) Option {
	return func(c *config) {
		c.targetPort = port
	}
}

// WithMaxFrameSize overrides the frame size bound.
func WithMaxFrameSize(size int) Option {
	return func(c *config) {
		c.maxFrameSize = size
	}
}

// WithSource selects the capture source by name, "afpacket" or "pcap".
func WithSource(name string) Option {
	return func(c *config) {
		c.sourceName = name
	}
}

// WithPromiscuous toggles promiscuous mode on captured interfaces.
func WithPromiscuous(on bool) Option {
	return func(c *config) {
		c.promiscuous = on
	}
}

// WithPollTimeout bounds how long a capture read blocks before the worker
// checks for cancellation.
func WithPollTimeout(d time.Duration) Option {
	return func(c *config) {
		c.pollTimeout = d
	}
}

// WithBufferSize sets the per-interface capture buffer in bytes.
func WithBufferSize(n int) Option {
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithKernelFilter toggles the in-kernel port prefilter.
func WithKernelFilter(on bool) Option {
	return func(c *config) {
		c.kernelFilter = on
	}
}

// WithInterfaces narrows the captured interfaces. An empty include list keeps
// every non-loopback interface.
func WithInterfaces(include, exclude []string) Option {
	return func(c *config) {
		c.include = include
		c.exclude = exclude
	}
}

// WithQueue sets the fan-in queue capacity and its overload policy: "block",
// "tail" or "head".
func WithQueue(capacity int, policy string) Option {
	return func(c *config) {
		c.queueCapacity = capacity
		c.dropPolicy = policy
	}
}

// WithDecoderName selects a registered decoder.
func WithDecoderName(name string) Option {
	return func(c *config) {
		c.decoderName = name
		c.decoder = nil
	}
}

// WithDecoder uses d instead of a registered decoder. The sniffer takes
// ownership: d must not be used elsewhere.
func WithDecoder(d decoder.Decoder) Option {
	return func(c *config) {
		c.decoder = d
		c.decoderName = "custom"
	}
}
