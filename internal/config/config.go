// Package config loads the agent configuration from a YAML file with
// environment overrides for deployment-specific values. Credentials are
// never compiled in; they come from the file, the environment, or a .env
// file loaded at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry values like "100ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full agent configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Device   DeviceConfig   `yaml:"device"`
	Audio    AudioConfig    `yaml:"audio"`
	Feedback FeedbackConfig `yaml:"feedback"`
	API      APIConfig      `yaml:"api"`
}

// ServerConfig locates the companion server.
type ServerConfig struct {
	// URL is the WebSocket endpoint, e.g. wss://host/ws.
	URL string `yaml:"url"`
	// AuthEndpoint is the device auth endpoint; empty disables auth.
	AuthEndpoint string `yaml:"auth_endpoint"`
	// ReconnectInterval is the pause between dial attempts.
	ReconnectInterval Duration `yaml:"reconnect_interval"`
}

// DeviceConfig identifies this device to the server.
type DeviceConfig struct {
	SerialNumber string `yaml:"serial_number"`
	SecretKey    string `yaml:"secret_key"`
	// ID is used in announcements when auth is disabled; generated when
	// empty.
	ID string `yaml:"id"`
}

// AudioConfig tunes acquisition and the producer pipeline.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	BlockSize  int `yaml:"block_size"`
	// Source selects the audio source: "tone" or "file".
	Source string `yaml:"source"`
	// SourcePath is the PCM stream path for the file source.
	SourcePath string `yaml:"source_path"`
	// ToneFrequency is the synthetic source's frequency in Hz.
	ToneFrequency float64 `yaml:"tone_frequency"`
	Gain          float64 `yaml:"gain"`
	SilencePeak   int     `yaml:"silence_peak"`
	SilenceRMS    float64 `yaml:"silence_rms"`
	ReadTimeout   Duration `yaml:"read_timeout"`
	// WireFormat selects "binary" (canonical) or "json" (legacy).
	WireFormat string `yaml:"wire_format"`
	// AutoEnable starts capture without waiting for a mic_on command, the
	// behavior of boards with a detected microphone.
	AutoEnable bool `yaml:"auto_enable"`
}

// FeedbackConfig selects the level indicator.
type FeedbackConfig struct {
	// Sink is "log" or "sysfs".
	Sink string `yaml:"sink"`
	// BrightnessPath is the LED-class brightness file for the sysfs sink.
	BrightnessPath string `yaml:"brightness_path"`
}

// APIConfig configures the local control API.
type APIConfig struct {
	Port int `yaml:"port"`
}

// Load reads the YAML file at path, fills defaults, and applies environment
// overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			URL:               "ws://localhost:8080/ws",
			ReconnectInterval: Duration(5 * time.Second),
		},
		Audio: AudioConfig{
			SampleRate:    44100,
			BlockSize:     512,
			Source:        "tone",
			ToneFrequency: 440,
			Gain:          1.0,
			SilencePeak:   200,
			SilenceRMS:    60,
			ReadTimeout:   Duration(100 * time.Millisecond),
			WireFormat:    "binary",
		},
		Feedback: FeedbackConfig{
			Sink: "log",
		},
		API: APIConfig{
			Port: 8081,
		},
	}
}

// applyEnv overrides deployment-specific values from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ARUNIKA_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("ARUNIKA_AUTH_ENDPOINT"); v != "" {
		cfg.Server.AuthEndpoint = v
	}
	if v := os.Getenv("ARUNIKA_DEVICE_SERIAL"); v != "" {
		cfg.Device.SerialNumber = v
	}
	if v := os.Getenv("ARUNIKA_DEVICE_SECRET"); v != "" {
		cfg.Device.SecretKey = v
	}
	if v := os.Getenv("ARUNIKA_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
}

// Validate rejects configurations the agent cannot run with.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.Server.AuthEndpoint != "" && (c.Device.SerialNumber == "" || c.Device.SecretKey == "") {
		return fmt.Errorf("device.serial_number and device.secret_key are required when auth is enabled")
	}
	if c.Audio.Source != "tone" && c.Audio.Source != "file" {
		return fmt.Errorf("audio.source must be \"tone\" or \"file\", got %q", c.Audio.Source)
	}
	if c.Audio.Source == "file" && c.Audio.SourcePath == "" {
		return fmt.Errorf("audio.source_path is required for the file source")
	}
	if c.Audio.WireFormat != "binary" && c.Audio.WireFormat != "json" {
		return fmt.Errorf("audio.wire_format must be \"binary\" or \"json\", got %q", c.Audio.WireFormat)
	}
	if c.Feedback.Sink != "log" && c.Feedback.Sink != "sysfs" {
		return fmt.Errorf("feedback.sink must be \"log\" or \"sysfs\", got %q", c.Feedback.Sink)
	}
	if c.Feedback.Sink == "sysfs" && c.Feedback.BrightnessPath == "" {
		return fmt.Errorf("feedback.brightness_path is required for the sysfs sink")
	}
	if c.Audio.BlockSize <= 0 || c.Audio.BlockSize > 65535 {
		return fmt.Errorf("audio.block_size must be in (0, 65535], got %d", c.Audio.BlockSize)
	}
	return nil
}
