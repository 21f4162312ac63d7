package entities

import "math"

// AudioMetrics holds per-block loudness figures. They drive the visual
// feedback output and logging only; nothing is persisted.
type AudioMetrics struct {
	Peak int16
	RMS  float64
}

// AudioFrame is one fixed-size block of converted mono samples together with
// its metrics. The sample slice aliases a buffer owned by the producer and is
// only valid until the next acquisition cycle.
type AudioFrame struct {
	Samples []int16
	Metrics AudioMetrics
}

// ComputeMetrics derives peak and RMS over a block of converted samples. The
// sum-of-squares accumulator is 64-bit, wide enough for full-scale int16
// blocks far beyond any practical block size.
func ComputeMetrics(samples []int16) AudioMetrics {
	if len(samples) == 0 {
		return AudioMetrics{}
	}

	var peak int16
	var sumSquares int64
	for _, s := range samples {
		abs := s
		if abs < 0 {
			if abs == math.MinInt16 {
				abs = math.MaxInt16
			} else {
				abs = -abs
			}
		}
		if abs > peak {
			peak = abs
		}
		sumSquares += int64(s) * int64(s)
	}

	rms := math.Sqrt(float64(sumSquares) / float64(len(samples)))
	return AudioMetrics{Peak: peak, RMS: rms}
}

// IsSilentBelow reports whether both peak and RMS fall under the given
// thresholds.
func (m AudioMetrics) IsSilentBelow(peakThreshold int16, rmsThreshold float64) bool {
	return m.Peak < peakThreshold && m.RMS < rmsThreshold
}
