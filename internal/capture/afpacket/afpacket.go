//go:build linux

// Package afpacket implements an AF_PACKET TPACKET_V3 capture source.
package afpacket

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"
	"github.com/vishvananda/netlink"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/netif"
)

// Name is the source name used in configuration.
const Name = "afpacket"

// Source opens TPACKET_V3 rings.
type Source struct{}

// New creates an afpacket source.
func New() *Source {
	return &Source{}
}

// Name implements capture.Source.
func (s *Source) Name() string {
	return Name
}

// Open implements capture.Source.
func (s *Source) Open(iface netif.Interface, opts capture.Options) (capture.Handle, error) {
	if !iface.Ethernet {
		return nil, fmt.Errorf("%s: %w", iface.Name, core.ErrNotEthernet)
	}

	frameSize, blockSize, numBlocks, err := ringGeometry(opts.SnapLen, opts.BufferSize, os.Getpagesize())
	if err != nil {
		return nil, err
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface.Name),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(opts.PollTimeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create TPacket handle: %w", err)
	}

	if len(opts.Filter) > 0 {
		if err := tp.SetBPF(opts.Filter); err != nil {
			tp.Close()
			return nil, fmt.Errorf("failed to set BPF: %w", err)
		}
	}

	h := &handle{tp: tp}
	if opts.Promiscuous {
		h.promisc = enablePromisc(iface)
	}
	return h, nil
}

// minFrameSize leaves room for the tpacket3 header and sockaddr_ll in front
// of the packet data; the kernel rejects smaller frames with EINVAL.
const minFrameSize = 256

// ringGeometry sizes the ring the same way for every snap length: frames
// are a divisor or multiple of the page size, never below minFrameSize, and
// a block holds 128 frames.
func ringGeometry(snapLen, bufferSize, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid snap length %d", snapLen)
	}
	snapLen = max(snapLen, minFrameSize)
	if snapLen < pageSize {
		frameSize = pageSize / (pageSize / snapLen)
	} else {
		frameSize = (snapLen/pageSize + 1) * pageSize
	}
	blockSize = frameSize * 128
	numBlocks = bufferSize / blockSize
	if numBlocks < 1 {
		return 0, 0, 0, fmt.Errorf("buffer size %d too small for frame size %d", bufferSize, frameSize)
	}
	return frameSize, blockSize, numBlocks, nil
}

// enablePromisc turns on promiscuous mode when the link does not already
// have it and returns the link to restore on close.
func enablePromisc(iface netif.Interface) netlink.Link {
	link, err := netlink.LinkByIndex(iface.Index)
	if err != nil {
		slog.Warn("promiscuous mode unavailable", "interface", iface.Name, "error", err)
		return nil
	}
	if link.Attrs().Promisc != 0 {
		return nil
	}
	if err := netlink.SetPromiscOn(link); err != nil {
		slog.Warn("failed to enable promiscuous mode", "interface", iface.Name, "error", err)
		return nil
	}
	return link
}

type handle struct {
	tp      *afpacket.TPacket
	promisc netlink.Link
}

// ReadFrame returns ring memory that is reused on the next call.
func (h *handle) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := h.tp.ZeroCopyReadPacketData()
	if err != nil {
		if errors.Is(err, afpacket.ErrTimeout) {
			return nil, ci, core.ErrReadTimeout
		}
		return nil, ci, err
	}
	return data, ci, nil
}

func (h *handle) Close() error {
	h.tp.Close()
	if h.promisc != nil {
		if err := netlink.SetPromiscOff(h.promisc); err != nil {
			return fmt.Errorf("failed to restore promiscuous mode: %w", err)
		}
	}
	return nil
}
