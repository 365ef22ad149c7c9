//go:build linux

package netif

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

func listLinks() ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("netlink list: %w", err)
	}
	ifaces := make([]Interface, 0, len(links))
	for _, link := range links {
		ifaces = append(ifaces, fromNetlink(link))
	}
	return ifaces, nil
}

func fromNetlink(link netlink.Link) Interface {
	attrs := link.Attrs()
	return Interface{
		Name:         attrs.Name,
		Index:        attrs.Index,
		MTU:          attrs.MTU,
		HardwareAddr: attrs.HardwareAddr,
		Flags:        attrs.Flags,
		Loopback:     attrs.Flags&net.FlagLoopback != 0 || attrs.EncapType == "loopback",
		Ethernet:     attrs.EncapType == "ether",
		Up: attrs.Flags&net.FlagUp != 0 &&
			attrs.OperState != netlink.OperDown &&
			attrs.OperState != netlink.OperNotPresent,
	}
}
