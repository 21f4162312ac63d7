package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URL != "ws://localhost:8080/ws" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.ReconnectInterval.Std() != 5*time.Second {
		t.Errorf("ReconnectInterval = %v, want 5s", cfg.Server.ReconnectInterval.Std())
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BlockSize != 512 {
		t.Errorf("BlockSize = %d, want 512", cfg.Audio.BlockSize)
	}
	if cfg.Audio.WireFormat != "binary" {
		t.Errorf("WireFormat = %q, want binary", cfg.Audio.WireFormat)
	}
	if cfg.Audio.ReadTimeout.Std() != 100*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 100ms", cfg.Audio.ReadTimeout.Std())
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  url: wss://example.com/ws
  auth_endpoint: https://example.com/api/v1/device/auth
  reconnect_interval: 2s
device:
  serial_number: ARUNIKA001
  secret_key: secret123
audio:
  sample_rate: 16000
  block_size: 1024
  source: tone
  gain: 2.5
  read_timeout: 50ms
  wire_format: json
api:
  port: 9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URL != "wss://example.com/ws" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.ReconnectInterval.Std() != 2*time.Second {
		t.Errorf("ReconnectInterval = %v, want 2s", cfg.Server.ReconnectInterval.Std())
	}
	if cfg.Audio.BlockSize != 1024 {
		t.Errorf("BlockSize = %d, want 1024", cfg.Audio.BlockSize)
	}
	if cfg.Audio.Gain != 2.5 {
		t.Errorf("Gain = %f, want 2.5", cfg.Audio.Gain)
	}
	if cfg.Audio.WireFormat != "json" {
		t.Errorf("WireFormat = %q, want json", cfg.Audio.WireFormat)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARUNIKA_SERVER_URL", "wss://override.example.com/ws")
	t.Setenv("ARUNIKA_DEVICE_SERIAL", "ARUNIKA002")
	t.Setenv("ARUNIKA_DEVICE_SECRET", "supersecret")
	t.Setenv("ARUNIKA_API_PORT", "7777")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URL != "wss://override.example.com/ws" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Device.SerialNumber != "ARUNIKA002" {
		t.Errorf("SerialNumber = %q", cfg.Device.SerialNumber)
	}
	if cfg.Device.SecretKey != "supersecret" {
		t.Errorf("SecretKey = %q", cfg.Device.SecretKey)
	}
	if cfg.API.Port != 7777 {
		t.Errorf("API.Port = %d, want 7777", cfg.API.Port)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  reconnect_interval: not-a-duration
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"missing server url", func(c *Config) { c.Server.URL = "" }, true},
		{"auth without credentials", func(c *Config) { c.Server.AuthEndpoint = "https://x/auth" }, true},
		{"auth with credentials", func(c *Config) {
			c.Server.AuthEndpoint = "https://x/auth"
			c.Device.SerialNumber = "A"
			c.Device.SecretKey = "B"
		}, false},
		{"unknown source", func(c *Config) { c.Audio.Source = "alsa" }, true},
		{"file source without path", func(c *Config) { c.Audio.Source = "file" }, true},
		{"unknown wire format", func(c *Config) { c.Audio.WireFormat = "msgpack" }, true},
		{"sysfs sink without path", func(c *Config) { c.Feedback.Sink = "sysfs" }, true},
		{"block size too large", func(c *Config) { c.Audio.BlockSize = 100000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
