package capture

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"golang.org/x/net/bpf"
)

// Ethernet frame offsets used by the prefilter.
const (
	offEtherType = 12
	offIPFlags   = 20
	offIPProto   = 23
	offIPHeader  = 14
	// UDP ports relative to the start of the IPv4 header plus its length.
	offUDPSrc = offIPHeader
	offUDPDst = offIPHeader + 2
)

// PortFilter assembles a classic BPF program accepting unfragmented
// IPv4/UDP frames whose source or destination port is port. Accepted frames
// are cut to snapLen bytes.
func PortFilter(port uint16, snapLen int) ([]bpf.RawInstruction, error) {
	if snapLen <= 0 {
		return nil, fmt.Errorf("invalid snap length %d", snapLen)
	}
	prog := []bpf.Instruction{
		bpf.LoadAbsolute{Off: offEtherType, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(layers.EthernetTypeIPv4), SkipTrue: 10},
		bpf.LoadAbsolute{Off: offIPProto, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(layers.IPProtocolUDP), SkipTrue: 8},
		// More-fragments flag or a non-zero fragment offset.
		bpf.LoadAbsolute{Off: offIPFlags, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpBitsSet, Val: 0x3fff, SkipTrue: 6},
		// X = IPv4 header length.
		bpf.LoadMemShift{Off: offIPHeader},
		bpf.LoadIndirect{Off: offUDPSrc, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipTrue: 2},
		bpf.LoadIndirect{Off: offUDPDst, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipFalse: 1},
		bpf.RetConstant{Val: uint32(snapLen)},
		bpf.RetConstant{Val: 0},
	}

	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble BPF filter: %w", err)
	}
	return raw, nil
}
