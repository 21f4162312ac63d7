// Package led provides LevelIndicator implementations for the audio-level
// feedback output.
package led

import (
	"os"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/domain/repositories"
)

// SysfsIndicator drives a Linux LED-class device by writing the intensity to
// its brightness file.
type SysfsIndicator struct {
	path   string
	logger *zap.Logger
	last   atomic.Uint32
}

// NewSysfsIndicator returns an indicator writing to the given brightness
// file, e.g. /sys/class/leds/board-led/brightness.
func NewSysfsIndicator(path string, logger *zap.Logger) repositories.LevelIndicator {
	return &SysfsIndicator{path: path, logger: logger}
}

// SetIntensity implements repositories.LevelIndicator. Unchanged values are
// skipped; write failures are logged and otherwise ignored since feedback is
// best effort.
func (s *SysfsIndicator) SetIntensity(level uint8) {
	if uint32(level) == s.last.Swap(uint32(level)) {
		return
	}
	if err := os.WriteFile(s.path, []byte(strconv.Itoa(int(level))), 0o644); err != nil {
		s.logger.Warn("failed to update led brightness", zap.Error(err))
	}
}

// LogIndicator reports intensity changes through the logger, the stand-in
// when no LED hardware is present.
type LogIndicator struct {
	logger *zap.Logger
	last   atomic.Uint32
}

// NewLogIndicator returns a logging indicator.
func NewLogIndicator(logger *zap.Logger) *LogIndicator {
	return &LogIndicator{logger: logger}
}

// SetIntensity implements repositories.LevelIndicator.
func (l *LogIndicator) SetIntensity(level uint8) {
	if uint32(level) == l.last.Swap(uint32(level)) {
		return
	}
	l.logger.Debug("audio level", zap.Uint8("intensity", level))
}

// Last returns the most recent intensity, for tests and the status API.
func (l *LogIndicator) Last() uint8 {
	return uint8(l.last.Load())
}
