// Package capturetest provides an in-memory capture source for tests.
package capturetest

import (
	"sync"
	"time"

	"github.com/google/gopacket"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/netif"
)

// Frame is one scripted read result. Err takes precedence over Data.
type Frame struct {
	Data []byte
	Err  error
}

// Source replays scripted frames per interface name.
type Source struct {
	mu      sync.Mutex
	scripts map[string][]Frame
	openErr map[string]error
	opened  map[string]capture.Options
	handles map[string]*Handle
}

// NewSource creates an empty Source. Interfaces without a script open fine
// and only ever time out.
func NewSource() *Source {
	return &Source{
		scripts: make(map[string][]Frame),
		openErr: make(map[string]error),
		opened:  make(map[string]capture.Options),
		handles: make(map[string]*Handle),
	}
}

// AddFrames appends frames to the script of iface.
func (s *Source) AddFrames(iface string, frames ...[]byte) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range frames {
		s.scripts[iface] = append(s.scripts[iface], Frame{Data: f})
	}
	return s
}

// AddError appends a read error to the script of iface.
func (s *Source) AddError(iface string, err error) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[iface] = append(s.scripts[iface], Frame{Err: err})
	return s
}

// FailOpen makes Open fail for iface.
func (s *Source) FailOpen(iface string, err error) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr[iface] = err
	return s
}

// Name implements capture.Source.
func (s *Source) Name() string {
	return "fake"
}

// Open implements capture.Source.
func (s *Source) Open(iface netif.Interface, opts capture.Options) (capture.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openErr[iface.Name]; err != nil {
		return nil, err
	}
	h := &Handle{frames: s.scripts[iface.Name]}
	s.opened[iface.Name] = opts
	s.handles[iface.Name] = h
	return h, nil
}

// Opened reports whether iface was opened and with which options.
func (s *Source) Opened(iface string) (capture.Options, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts, ok := s.opened[iface]
	return opts, ok
}

// Handle returns the handle opened for iface, or nil.
func (s *Source) Handle(iface string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[iface]
}

// Handle replays a script, then reports poll timeouts until closed.
type Handle struct {
	mu     sync.Mutex
	frames []Frame
	pos    int
	closed bool
}

// ReadFrame implements capture.Handle. Each returned frame is a fresh copy so
// callers cannot alter the script.
func (h *Handle) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, gopacket.CaptureInfo{}, core.ErrHandleClosed
	}
	if h.pos >= len(h.frames) {
		h.mu.Unlock()
		time.Sleep(time.Millisecond)
		return nil, gopacket.CaptureInfo{}, core.ErrReadTimeout
	}
	f := h.frames[h.pos]
	h.pos++
	h.mu.Unlock()

	if f.Err != nil {
		return nil, gopacket.CaptureInfo{}, f.Err
	}
	data := append([]byte(nil), f.Data...)
	return data, gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}, nil
}

// Close implements capture.Handle.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close was called.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Drained reports whether every scripted frame has been read.
func (h *Handle) Drained() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos >= len(h.frames)
}
