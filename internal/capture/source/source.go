// Package source resolves capture sources by configuration name.
package source

import (
	"fmt"
	"maps"
	"slices"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/capture/pcap"
	"github.com/zMarques/albion-network/internal/core"
)

func available() map[string]func() capture.Source {
	sources := map[string]func() capture.Source{
		pcap.Name: func() capture.Source { return pcap.New() },
	}
	addPlatform(sources)
	return sources
}

// New returns the capture source registered under name.
func New(name string) (capture.Source, error) {
	factory, ok := available()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", core.ErrUnknownSource, name, Names())
	}
	return factory(), nil
}

// Names lists the sources available on this platform.
func Names() []string {
	return slices.Sorted(maps.Keys(available()))
}
