package repositories

import (
	"context"
	"errors"
)

// ErrReadTimeout is returned by AudioSource.ReadSamples when no samples
// arrive before the context deadline. It is a transient condition; the caller
// retries on the next cycle.
var ErrReadTimeout = errors.New("audio source read timeout")

// AudioSource abstracts the microphone driver. Implementations deliver raw
// samples in the source's native width (32-bit words with the audio data in
// the high-order bits for an I2S MEMS microphone).
type AudioSource interface {
	// ReadSamples fills buf with raw samples and returns the number of
	// samples read. The read blocks until the buffer is full or the context
	// deadline expires, in which case ErrReadTimeout is returned.
	ReadSamples(ctx context.Context, buf []int32) (int, error)
	// SourceBits reports the native sample width in bits.
	SourceBits() int
	// Close releases the underlying driver resources.
	Close() error
}
