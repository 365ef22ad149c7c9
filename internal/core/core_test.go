package core

import (
	"errors"
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowString(t *testing.T) {
	f := Flow{
		SrcIP:   netip.MustParseAddr("192.168.1.10"),
		DstIP:   netip.MustParseAddr("5.188.125.20"),
		SrcPort: 51000,
		DstPort: 5056,
	}
	assert.Equal(t, "192.168.1.10:51000 -> 5.188.125.20:5056", f.String())
}

func TestFlowInbound(t *testing.T) {
	f := Flow{SrcPort: 51000, DstPort: 5056}
	assert.True(t, f.Inbound(5056))
	assert.False(t, f.Inbound(51001))

	reply := Flow{SrcPort: 5056, DstPort: 51000}
	assert.False(t, reply.Inbound(5056))
}

func TestSentinelsWrap(t *testing.T) {
	err := fmt.Errorf("open eth0: %w", ErrNotEthernet)
	assert.True(t, errors.Is(err, ErrNotEthernet))
	assert.False(t, errors.Is(err, ErrHandleClosed))
}
