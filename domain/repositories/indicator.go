package repositories

// LevelIndicator abstracts the visual-feedback output (the board LED on the
// real device). Intensity is already mapped and saturated to [0, 255] by the
// caller.
type LevelIndicator interface {
	SetIntensity(level uint8)
}
