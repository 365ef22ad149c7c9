//go:build !linux

package config

const defaultSource = "pcap"

var validSources = []string{"pcap"}
