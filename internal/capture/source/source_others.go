//go:build !linux

package source

import (
	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/capture/pcap"
)

// Default is the source used when none is configured.
const Default = pcap.Name

func addPlatform(map[string]func() capture.Source) {}
