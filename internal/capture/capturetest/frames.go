package capturetest

import "encoding/binary"

// UDPFrame builds an Ethernet/IPv4/UDP frame from 192.168.1.1 to 192.168.1.2.
// Checksums are left at zero.
func UDPFrame(srcPort, dstPort uint16, payload []byte) []byte {
	const headers = 14 + 20 + 8
	frame := make([]byte, headers+len(payload))

	// Ethernet header (14 bytes)
	copy(frame[0:6], []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55})
	copy(frame[6:12], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	frame[12], frame[13] = 0x08, 0x00 // EtherType: IPv4

	// IPv4 header (20 bytes)
	ip := frame[14:34]
	ip[0] = 0x45 // Version 4, IHL 5
	binary.BigEndian.PutUint16(ip[2:4], uint16(20+8+len(payload)))
	binary.BigEndian.PutUint16(ip[4:6], 0x1234) // Identification
	ip[8] = 0x40                                // TTL: 64
	ip[9] = 0x11                                // Protocol: UDP
	copy(ip[12:16], []byte{192, 168, 1, 1})
	copy(ip[16:20], []byte{192, 168, 1, 2})

	// UDP header (8 bytes)
	udp := frame[34:42]
	binary.BigEndian.PutUint16(udp[0:2], srcPort)
	binary.BigEndian.PutUint16(udp[2:4], dstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(8+len(payload)))

	copy(frame[headers:], payload)
	return frame
}

// ARPFrame builds a minimal ARP request frame.
func ARPFrame() []byte {
	frame := make([]byte, 42)
	copy(frame[0:6], []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	copy(frame[6:12], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	frame[12], frame[13] = 0x08, 0x06
	arp := frame[14:]
	binary.BigEndian.PutUint16(arp[0:2], 1)      // Ethernet
	binary.BigEndian.PutUint16(arp[2:4], 0x0800) // IPv4
	arp[4], arp[5] = 6, 4
	binary.BigEndian.PutUint16(arp[6:8], 1) // Request
	return frame
}
