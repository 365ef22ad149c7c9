//go:build !linux

package netif

import (
	"fmt"

	"github.com/google/gopacket/pcap"
)

// listLinks enumerates through libpcap so every name can be opened by the
// pcap capture source.
func listLinks() ([]Interface, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("pcap find devices: %w", err)
	}
	return fromPcap(devs, hostLinks()), nil
}
