// Package mic provides AudioSource implementations: a synthetic tone
// generator for development and a raw-PCM file source fed by an external
// I2S capture process.
package mic

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/domain/repositories"
)

// ToneSource synthesizes a sine wave in the 32-bit I2S sample layout (audio
// data in the high-order 16 bits), paced to real time so the capture loop
// behaves as it would against hardware. Single consumer only.
type ToneSource struct {
	sampleRate int
	frequency  float64
	amplitude  float64
	logger     *zap.Logger

	phase float64
	next  time.Time
}

// NewToneSource returns a source producing a tone at the given frequency.
// amplitude is the peak in int16 units.
func NewToneSource(sampleRate int, frequency float64, amplitude int16, logger *zap.Logger) repositories.AudioSource {
	logger.Info("using synthetic tone source",
		zap.Int("sampleRate", sampleRate),
		zap.Float64("frequency", frequency),
		zap.Int16("amplitude", amplitude))
	return &ToneSource{
		sampleRate: sampleRate,
		frequency:  frequency,
		amplitude:  float64(amplitude),
		logger:     logger,
	}
}

// ReadSamples implements repositories.AudioSource. It sleeps until the block
// is due in real time, returning ErrReadTimeout if the context deadline
// lands first.
func (s *ToneSource) ReadSamples(ctx context.Context, buf []int32) (int, error) {
	now := time.Now()
	if s.next.IsZero() || s.next.Before(now.Add(-time.Second)) {
		s.next = now
	}

	if wait := s.next.Sub(now); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return 0, repositories.ErrReadTimeout
			}
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	step := 2 * math.Pi * s.frequency / float64(s.sampleRate)
	for i := range buf {
		sample := int32(s.amplitude * math.Sin(s.phase))
		buf[i] = sample << 16
		s.phase += step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}

	blockDur := time.Duration(len(buf)) * time.Second / time.Duration(s.sampleRate)
	s.next = s.next.Add(blockDur)
	return len(buf), nil
}

// SourceBits implements repositories.AudioSource.
func (s *ToneSource) SourceBits() int {
	return 32
}

// Close implements repositories.AudioSource.
func (s *ToneSource) Close() error {
	return nil
}
