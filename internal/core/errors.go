// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors shared by the capture pipeline.
var (
	// Startup errors
	ErrEnumerate      = errors.New("albion-network: interface enumeration failed")
	ErrNoInterfaces   = errors.New("albion-network: no capturable interfaces")
	ErrAlreadyRunning = errors.New("albion-network: sniffer already running")

	// Capture errors
	ErrCaptureOpen   = errors.New("albion-network: capture open failed")
	ErrNotEthernet   = errors.New("albion-network: link layer is not ethernet")
	ErrHandleClosed  = errors.New("albion-network: capture handle closed")
	ErrReadTimeout   = errors.New("albion-network: capture read timeout")
	ErrUnknownSource = errors.New("albion-network: unknown capture source")

	// Queue errors
	ErrQueueClosed = errors.New("albion-network: queue closed")
	ErrQueueFull   = errors.New("albion-network: queue full")

	// Decoder errors
	ErrDecoderNotFound = errors.New("albion-network: decoder not found")

	// Configuration errors
	ErrConfigInvalid = errors.New("albion-network: invalid configuration")
)
