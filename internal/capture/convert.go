package capture

import "math"

// ConvertBlock downconverts raw source samples to int16: arithmetic right
// shift by the bit-depth delta, fixed gain, then a saturating clamp. Returns
// the number of samples written, bounded by the shorter slice.
func ConvertBlock(raw []int32, out []int16, sourceBits int, gain float64) int {
	shift := uint(0)
	if sourceBits > 16 {
		shift = uint(sourceBits - 16)
	}

	n := len(raw)
	if len(out) < n {
		n = len(out)
	}

	for i := 0; i < n; i++ {
		v := float64(raw[i]>>shift) * gain
		out[i] = clampInt16(v)
	}
	return n
}

func clampInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// IntensityFromRMS maps an RMS amplitude to a feedback intensity in [0, 255]
// along a square-root curve, which tracks perceived loudness better than a
// linear ramp. Saturates at full scale.
func IntensityFromRMS(rms float64) uint8 {
	if rms <= 0 {
		return 0
	}
	scaled := 255 * math.Sqrt(rms/math.MaxInt16)
	if scaled >= 255 {
		return 255
	}
	return uint8(scaled)
}
