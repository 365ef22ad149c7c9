// Package filter classifies captured Ethernet frames and extracts the UDP
// payloads addressed to or from the target port.
package filter

import (
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/zMarques/albion-network/internal/core"
)

// Verdict is the outcome of classifying one frame.
type Verdict uint8

const (
	Matched      Verdict = iota // Ethernet/IPv4/UDP with the target port on either side
	Malformed                   // A required header is missing or invalid
	NotIPv4                     // EtherType is not IPv4 (ARP, IPv6, VLAN tagged, ...)
	NotUDP                      // IPv4 carries another transport
	Fragment                    // IPv4 fragment, UDP header not reliably present
	PortMismatch                // Neither UDP port is the target port
)

var verdictNames = [...]string{
	Matched:      "matched",
	Malformed:    "malformed",
	NotIPv4:      "not_ipv4",
	NotUDP:       "not_udp",
	Fragment:     "fragment",
	PortMismatch: "port_mismatch",
}

func (v Verdict) String() string {
	if int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return "unknown"
}

// Filter decodes frames with a reusable gopacket layer parser. A Filter keeps
// per-frame state in its layers and must only be used by one goroutine.
type Filter struct {
	port uint16

	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType

	eth layers.Ethernet
	ip4 layers.IPv4
	udp layers.UDP
}

// New creates a Filter accepting UDP traffic whose source or destination port is port.
func New(port uint16) *Filter {
	f := &Filter{
		port:    port,
		decoded: make([]gopacket.LayerType, 0, 4),
	}
	f.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &f.eth, &f.ip4, &f.udp)
	// Layers past UDP (or any unknown EtherType) end decoding without an error.
	f.parser.IgnoreUnsupported = true
	return f
}

// Port returns the target port.
func (f *Filter) Port() uint16 {
	return f.port
}

// Classify runs frame through Ethernet, IPv4 and UDP in order, stopping at the
// first failing step. On Matched, payload is a view into frame and is only
// valid as long as frame is.
func (f *Filter) Classify(frame []byte) (verdict Verdict, flow core.Flow, payload []byte) {
	err := f.parser.DecodeLayers(frame, &f.decoded)

	// Layer structs keep fields from earlier frames; trust only decoded ones.
	if !f.has(layers.LayerTypeEthernet) {
		return Malformed, flow, nil
	}
	if f.eth.EthernetType != layers.EthernetTypeIPv4 {
		return NotIPv4, flow, nil
	}
	if !f.has(layers.LayerTypeIPv4) || f.ip4.Version != 4 {
		return Malformed, flow, nil
	}
	if f.ip4.Protocol != layers.IPProtocolUDP {
		return NotUDP, flow, nil
	}
	if f.ip4.Flags&layers.IPv4MoreFragments != 0 || f.ip4.FragOffset != 0 {
		return Fragment, flow, nil
	}
	if !f.has(layers.LayerTypeUDP) || err != nil {
		return Malformed, flow, nil
	}

	src, dst := uint16(f.udp.SrcPort), uint16(f.udp.DstPort)
	if src != f.port && dst != f.port {
		return PortMismatch, flow, nil
	}

	flow.SrcIP, _ = netip.AddrFromSlice(f.ip4.SrcIP)
	flow.DstIP, _ = netip.AddrFromSlice(f.ip4.DstIP)
	flow.SrcPort, flow.DstPort = src, dst
	return Matched, flow, f.udp.Payload
}

// Match returns a copy of the UDP payload when frame is accepted. The copy
// does not share memory with frame.
func (f *Filter) Match(frame []byte) ([]byte, bool) {
	verdict, _, payload := f.Classify(frame)
	if verdict != Matched {
		return nil, false
	}
	return Copy(payload), true
}

// Copy detaches a payload from the capture buffer. The result is never nil.
func Copy(payload []byte) []byte {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out
}

func (f *Filter) has(lt gopacket.LayerType) bool {
	for _, d := range f.decoded {
		if d == lt {
			return true
		}
	}
	return false
}
