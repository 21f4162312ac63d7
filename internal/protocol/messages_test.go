package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Command
		wantErr bool
	}{
		{"mic on", "mic_on", CommandMicOn, false},
		{"mic off", "mic_off", CommandMicOff, false},
		{"mic check", "mic_check", CommandMicCheck, false},
		{"surrounding whitespace", "  mic_on\n", CommandMicOn, false},
		{"unknown token", "selfdestruct", "", true},
		{"empty", "", "", true},
		{"json payload is not a command", `{"type":"mic_on"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewMicStatusMessage(t *testing.T) {
	msg := NewMicStatusMessage(true, false)

	if msg.Type != "mic_status" {
		t.Errorf("Type = %q, want mic_status", msg.Type)
	}
	if !msg.Connected {
		t.Error("Connected = false, want true")
	}
	if msg.Enabled {
		t.Error("Enabled = true, want false")
	}
	if msg.Timestamp == 0 {
		t.Error("Timestamp not set")
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("unknown command \"selfdestruct\"")

	if msg.Type != "error" {
		t.Errorf("Type = %q, want error", msg.Type)
	}
	if msg.Message == "" {
		t.Error("Message not set")
	}
}

func TestEncodeText_InfoMessage(t *testing.T) {
	encoded, err := EncodeText(NewInfoMessage("device-123"))
	if err != nil {
		t.Fatalf("EncodeText() error = %v", err)
	}

	var decoded InfoMessage
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Type != "info" {
		t.Errorf("Type = %q, want info", decoded.Type)
	}
	if decoded.DeviceID != "device-123" {
		t.Errorf("DeviceID = %q, want device-123", decoded.DeviceID)
	}
}
