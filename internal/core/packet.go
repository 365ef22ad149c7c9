// Package core defines core data structures with zero external dependencies.
package core

import "time"

// Payload is a UDP payload copied out of a captured frame. It owns Data; the
// capture buffer it came from may be reused as soon as the payload is built.
type Payload struct {
	Interface string    // Name of the interface the frame was captured on
	Timestamp time.Time // Capture timestamp (kernel timestamp when available)
	Flow      Flow
	Data      []byte
}
