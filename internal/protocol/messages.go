package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Command is a plain-text control token received from the server. The
// spelling matches what the web interface has always sent to the device.
type Command string

const (
	CommandMicOn    Command = "mic_on"
	CommandMicOff   Command = "mic_off"
	CommandMicCheck Command = "mic_check"
)

// ParseCommand maps an inbound text message to a Command. Surrounding
// whitespace is ignored; unknown tokens are rejected.
func ParseCommand(message []byte) (Command, error) {
	switch cmd := Command(strings.TrimSpace(string(message))); cmd {
	case CommandMicOn, CommandMicOff, CommandMicCheck:
		return cmd, nil
	default:
		return "", fmt.Errorf("unknown command %q", strings.TrimSpace(string(message)))
	}
}

// InfoMessage announces the device to the server after connecting.
type InfoMessage struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	DeviceID string `json:"device_id,omitempty"`
}

// MicStatusMessage reports the capture flags, sent in reply to mic_check and
// whenever the enabled flag flips.
type MicStatusMessage struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
	Enabled   bool   `json:"enabled"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorMessage reports a device-side problem back to the server, e.g. an
// unparseable command.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewInfoMessage builds the connect announcement.
func NewInfoMessage(deviceID string) InfoMessage {
	return InfoMessage{
		Type:     "info",
		Message:  "device microphone connected",
		DeviceID: deviceID,
	}
}

// NewErrorMessage builds an error report.
func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: message}
}

// NewMicStatusMessage builds a capture status report.
func NewMicStatusMessage(connected, enabled bool) MicStatusMessage {
	return MicStatusMessage{
		Type:      "mic_status",
		Connected: connected,
		Enabled:   enabled,
		Timestamp: time.Now().Unix(),
	}
}

// EncodeText marshals a status or info message for the text channel.
func EncodeText(msg interface{}) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode text message: %w", err)
	}
	return string(data), nil
}
