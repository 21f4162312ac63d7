// Package capture implements the audio frame producer: it pulls raw sample
// blocks from the microphone source, converts and meters them, gates silence,
// and emits framed wire units to the transport.
package capture

import "sync/atomic"

// State holds the two flags shared between the capture task and the
// transport event handler. The transport flips Connected from its read pump;
// control commands flip Enabled. The producer only ever reads.
type State struct {
	connected atomic.Bool
	enabled   atomic.Bool
}

// NewState returns a State with both flags down.
func NewState() *State {
	return &State{}
}

// SetConnected records the transport connection state.
func (s *State) SetConnected(up bool) {
	s.connected.Store(up)
}

// SetEnabled records whether capture is enabled.
func (s *State) SetEnabled(on bool) {
	s.enabled.Store(on)
}

// Connected reports the transport connection state.
func (s *State) Connected() bool {
	return s.connected.Load()
}

// Enabled reports whether capture is enabled.
func (s *State) Enabled() bool {
	return s.enabled.Load()
}

// Ready reports whether the producer may acquire and emit, which requires
// both flags up.
func (s *State) Ready() bool {
	return s.connected.Load() && s.enabled.Load()
}
