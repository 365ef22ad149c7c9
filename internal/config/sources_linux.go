//go:build linux

package config

const defaultSource = "afpacket"

var validSources = []string{"afpacket", "pcap"}
