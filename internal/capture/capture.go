// Package capture runs one capture worker per network interface. Workers read
// frames from a Source, keep the UDP payloads of the target port and push them
// onto the fan-in queue.
package capture

import (
	"time"

	"github.com/google/gopacket"
	"golang.org/x/net/bpf"

	"github.com/zMarques/albion-network/internal/netif"
)

const (
	// DefaultSnapLen bounds every captured frame.
	DefaultSnapLen = 1600
	// DefaultPollTimeout bounds a blocked read so cancellation is observed.
	DefaultPollTimeout = 100 * time.Millisecond
	// DefaultBufferSize is the kernel ring or libpcap buffer per interface.
	DefaultBufferSize = 8 * 1024 * 1024
)

// Options controls how a capture handle is opened.
type Options struct {
	SnapLen     int
	Promiscuous bool
	PollTimeout time.Duration
	BufferSize  int
	// Filter is attached to the handle as a kernel prefilter when non-empty.
	Filter []bpf.RawInstruction
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		SnapLen:     DefaultSnapLen,
		Promiscuous: true,
		PollTimeout: DefaultPollTimeout,
		BufferSize:  DefaultBufferSize,
	}
}

// Handle is an open live capture on one interface.
type Handle interface {
	// ReadFrame returns the next frame. The data is only valid until the
	// next call. A poll timeout is reported as core.ErrReadTimeout and a
	// handle that can no longer deliver frames as core.ErrHandleClosed.
	ReadFrame() ([]byte, gopacket.CaptureInfo, error)
	Close() error
}

// Source opens capture handles.
type Source interface {
	Name() string
	// Open fails with core.ErrNotEthernet when the link layer is not Ethernet.
	Open(iface netif.Interface, opts Options) (Handle, error)
}
