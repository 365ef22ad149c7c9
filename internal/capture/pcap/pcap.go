// Package pcap implements a libpcap capture source.
package pcap

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/netif"
)

// Name is the source name used in configuration.
const Name = "pcap"

// Source opens live libpcap handles.
type Source struct{}

// New creates a pcap source.
func New() *Source {
	return &Source{}
}

// Name implements capture.Source.
func (s *Source) Name() string {
	return Name
}

// Open implements capture.Source.
func (s *Source) Open(iface netif.Interface, opts capture.Options) (capture.Handle, error) {
	inactive, err := pcap.NewInactiveHandle(iface.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create pcap handle: %w", err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(opts.SnapLen); err != nil {
		return nil, fmt.Errorf("failed to set snap length: %w", err)
	}
	if err := inactive.SetPromisc(opts.Promiscuous); err != nil {
		return nil, fmt.Errorf("failed to set promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(opts.PollTimeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if opts.BufferSize > 0 {
		if err := inactive.SetBufferSize(opts.BufferSize); err != nil {
			return nil, fmt.Errorf("failed to set buffer size: %w", err)
		}
	}

	h, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("failed to activate pcap handle: %w", err)
	}

	if lt := h.LinkType(); lt != layers.LinkTypeEthernet {
		h.Close()
		return nil, fmt.Errorf("%s: link type %s: %w", iface.Name, lt, core.ErrNotEthernet)
	}

	if len(opts.Filter) > 0 {
		if err := h.SetBPFInstructionFilter(toPcap(opts.Filter)); err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to set BPF: %w", err)
		}
	}

	return &handle{h: h}, nil
}

// toPcap converts assembled instructions to the libpcap representation.
// The structures are identical: Op->Code, Jt, Jf, K.
func toPcap(raw []bpf.RawInstruction) []pcap.BPFInstruction {
	out := make([]pcap.BPFInstruction, len(raw))
	for i, ins := range raw {
		out[i] = pcap.BPFInstruction{
			Code: ins.Op,
			Jt:   ins.Jt,
			Jf:   ins.Jf,
			K:    ins.K,
		}
	}
	return out
}

type handle struct {
	h *pcap.Handle
}

func (h *handle) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := h.h.ZeroCopyReadPacketData()
	switch {
	case err == nil:
		return data, ci, nil
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return nil, ci, core.ErrReadTimeout
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
		return nil, ci, core.ErrHandleClosed
	default:
		return nil, ci, err
	}
}

func (h *handle) Close() error {
	h.h.Close()
	return nil
}
