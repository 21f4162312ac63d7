package mic

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/domain/repositories"
)

// RawFileSource streams 32-bit little-endian PCM words from a file or FIFO,
// the handoff path used when a separate process owns the I2S driver. A
// background goroutine pumps the stream into a channel so reads can honor
// the caller's deadline.
type RawFileSource struct {
	reader  io.ReadCloser
	samples chan int32
	errs    chan error
	logger  *zap.Logger
}

// channelDepth bounds how far the pump may run ahead of the consumer.
const channelDepth = 8192

// NewRawFileSource opens path and starts the pump goroutine.
func NewRawFileSource(path string, logger *zap.Logger) (repositories.AudioSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio stream: %w", err)
	}

	s := &RawFileSource{
		reader:  f,
		samples: make(chan int32, channelDepth),
		errs:    make(chan error, 1),
		logger:  logger,
	}
	go s.pump()

	logger.Info("using raw pcm file source", zap.String("path", path))
	return s, nil
}

// pump reads 4-byte words until the stream ends, then surfaces the error and
// closes the sample channel.
func (s *RawFileSource) pump() {
	defer close(s.samples)

	var word [4]byte
	for {
		if _, err := io.ReadFull(s.reader, word[:]); err != nil {
			s.errs <- err
			return
		}
		s.samples <- int32(binary.LittleEndian.Uint32(word[:]))
	}
}

// ReadSamples implements repositories.AudioSource. It returns a partial
// count if the deadline expires mid-block, or ErrReadTimeout when nothing
// arrived at all.
func (s *RawFileSource) ReadSamples(ctx context.Context, buf []int32) (int, error) {
	for i := range buf {
		select {
		case sample, ok := <-s.samples:
			if !ok {
				if i > 0 {
					return i, nil
				}
				select {
				case err := <-s.errs:
					return 0, fmt.Errorf("audio stream ended: %w", err)
				default:
					return 0, io.EOF
				}
			}
			buf[i] = sample
		case <-ctx.Done():
			if i > 0 {
				return i, nil
			}
			if ctx.Err() == context.DeadlineExceeded {
				return 0, repositories.ErrReadTimeout
			}
			return 0, ctx.Err()
		}
	}
	return len(buf), nil
}

// SourceBits implements repositories.AudioSource.
func (s *RawFileSource) SourceBits() int {
	return 32
}

// Close implements repositories.AudioSource.
func (s *RawFileSource) Close() error {
	return s.reader.Close()
}
