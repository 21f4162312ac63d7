package repositories

import "errors"

// ErrNotConnected is returned by transport sends while the connection to the
// server is down. Frames are dropped, never queued.
var ErrNotConnected = errors.New("transport not connected")

// FrameTransport abstracts the uplink to the companion server. Sends must be
// safe to call from the capture task while the owning task services incoming
// events.
type FrameTransport interface {
	// SendBinary delivers one wire unit as a single binary message.
	SendBinary(payload []byte) error
	// SendText delivers a control or status message as a text message.
	SendText(payload string) error
	// IsConnected reports the current connection state.
	IsConnected() bool
}
