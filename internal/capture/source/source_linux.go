//go:build linux

package source

import (
	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/capture/afpacket"
)

// Default is the source used when none is configured.
const Default = afpacket.Name

func addPlatform(sources map[string]func() capture.Source) {
	sources[afpacket.Name] = func() capture.Source { return afpacket.New() }
}
