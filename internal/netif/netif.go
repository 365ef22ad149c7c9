// Package netif enumerates the network interfaces eligible for capture.
package netif

import (
	"fmt"
	"net"
	"slices"

	"github.com/zMarques/albion-network/internal/core"
)

// Interface is a read-only snapshot of one capture-capable interface.
type Interface struct {
	Name         string
	Index        int
	MTU          int
	HardwareAddr net.HardwareAddr
	Flags        net.Flags
	Loopback     bool
	Ethernet     bool // Link layer carries Ethernet II framing
	Up           bool
}

// Options narrows the enumerated set after loopback exclusion.
type Options struct {
	Include []string // Only these names when non-empty
	Exclude []string // Never these names
}

// listFn is swapped in tests.
var listFn = listLinks

// List returns every interface on the host except loopback ones, filtered by opts.
// A platform listing failure wraps core.ErrEnumerate; an empty result is
// core.ErrNoInterfaces since the pipeline cannot run without interfaces.
func List(opts Options) ([]Interface, error) {
	all, err := All()
	if err != nil {
		return nil, err
	}

	ifaces := make([]Interface, 0, len(all))
	for _, iface := range all {
		if opts.Excluded(iface) != "" {
			continue
		}
		ifaces = append(ifaces, iface)
	}

	if len(ifaces) == 0 {
		return nil, core.ErrNoInterfaces
	}
	return ifaces, nil
}

// All returns every interface on the host, loopback included.
func All() ([]Interface, error) {
	all, err := listFn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEnumerate, err)
	}
	return all, nil
}

// Excluded returns why List leaves iface out, or "" if it is kept.
func (o Options) Excluded(iface Interface) string {
	switch {
	case iface.Loopback:
		return "loopback"
	case len(o.Include) > 0 && !slices.Contains(o.Include, iface.Name):
		return "not included"
	case slices.Contains(o.Exclude, iface.Name):
		return "excluded"
	}
	return ""
}

// fromNet converts a stdlib interface. Ethernet is inferred from a 6-byte MAC.
func fromNet(iface net.Interface) Interface {
	return Interface{
		Name:         iface.Name,
		Index:        iface.Index,
		MTU:          iface.MTU,
		HardwareAddr: iface.HardwareAddr,
		Flags:        iface.Flags,
		Loopback:     iface.Flags&net.FlagLoopback != 0,
		Ethernet:     len(iface.HardwareAddr) == 6,
		Up:           iface.Flags&net.FlagUp != 0,
	}
}
