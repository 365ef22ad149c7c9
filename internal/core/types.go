// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"net/netip"
)

// Flow identifies the UDP 4-tuple a payload was carried on.
type Flow struct {
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16
}

// String renders the flow as "src:port -> dst:port".
func (f Flow) String() string {
	return fmt.Sprintf("%s -> %s",
		netip.AddrPortFrom(f.SrcIP, f.SrcPort),
		netip.AddrPortFrom(f.DstIP, f.DstPort))
}

// Inbound reports whether the flow is addressed to port, i.e. travels toward
// the service rather than away from it.
func (f Flow) Inbound(port uint16) bool {
	return f.DstPort == port
}
