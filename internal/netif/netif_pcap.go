package netif

import (
	"net"

	"github.com/google/gopacket/pcap"
)

// pcap_if_t flags.
const (
	pcapIfLoopback = 0x1
	pcapIfUp       = 0x2
)

// hostLink is a stdlib interface with its unicast addresses.
type hostLink struct {
	iface net.Interface
	ips   []net.IP
}

// hostLinks lists the stdlib view of the host interfaces. Errors leave the
// result empty: the pcap device list alone is enough to capture.
func hostLinks() []hostLink {
	nifs, err := net.Interfaces()
	if err != nil {
		return nil
	}
	links := make([]hostLink, 0, len(nifs))
	for _, nif := range nifs {
		link := hostLink{iface: nif}
		addrs, _ := nif.Addrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				link.ips = append(link.ips, ipnet.IP)
			}
		}
		links = append(links, link)
	}
	return links
}

// fromPcap converts libpcap devices. The device name is kept as is since it
// is the only name pcap can open (\Device\NPF_{GUID} on Windows); index, MTU
// and MAC come from the host interface with the same name or a shared address.
func fromPcap(devs []pcap.Interface, links []hostLink) []Interface {
	ifaces := make([]Interface, 0, len(devs))
	for _, dev := range devs {
		iface := Interface{
			Name:     dev.Name,
			Loopback: dev.Flags&pcapIfLoopback != 0,
			Up:       dev.Flags&pcapIfUp != 0,
		}
		if nif, ok := matchLink(dev, links); ok {
			loopback := iface.Loopback
			iface = fromNet(nif)
			iface.Name = dev.Name
			iface.Loopback = iface.Loopback || loopback
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces
}

func matchLink(dev pcap.Interface, links []hostLink) (net.Interface, bool) {
	for _, link := range links {
		if link.iface.Name == dev.Name {
			return link.iface, true
		}
	}
	for _, addr := range dev.Addresses {
		if addr.IP == nil {
			continue
		}
		for _, link := range links {
			for _, ip := range link.ips {
				if ip.Equal(addr.IP) {
					return link.iface, true
				}
			}
		}
	}
	return net.Interface{}, false
}
