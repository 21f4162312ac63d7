package mic

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/domain/repositories"
)

func TestToneSource_FillsBlock(t *testing.T) {
	src := NewToneSource(44100, 440, 8000, zap.NewNop())

	buf := make([]int32, 256)
	n, err := src.ReadSamples(context.Background(), buf)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("ReadSamples returned %d samples, want %d", n, len(buf))
	}

	// Samples live in the high 16 bits and stay inside the requested peak.
	var nonZero bool
	for i, sample := range buf {
		if sample&0xFFFF != 0 {
			t.Fatalf("sample %d low bits set: %#x", i, sample)
		}
		high := sample >> 16
		if high > 8000 || high < -8000 {
			t.Fatalf("sample %d out of range: %d", i, high)
		}
		if high != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("tone produced only zero samples")
	}
}

func TestToneSource_PacesToRealTime(t *testing.T) {
	src := NewToneSource(8000, 440, 8000, zap.NewNop())
	buf := make([]int32, 400) // 50ms at 8kHz

	// First read primes the clock; the second has to wait out the block.
	if _, err := src.ReadSamples(context.Background(), buf); err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	start := time.Now()
	if _, err := src.ReadSamples(context.Background(), buf); err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("second block returned after %v, want real-time pacing", elapsed)
	}
}

func TestToneSource_DeadlineReturnsTimeout(t *testing.T) {
	src := NewToneSource(8000, 440, 8000, zap.NewNop())
	buf := make([]int32, 8000) // a full second of audio

	if _, err := src.ReadSamples(context.Background(), buf); err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := src.ReadSamples(ctx, buf)
	if !errors.Is(err, repositories.ErrReadTimeout) {
		t.Errorf("ReadSamples error = %v, want ErrReadTimeout", err)
	}
}

func writeRawFile(t *testing.T, samples []int32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.raw")
	data := make([]byte, 0, len(samples)*4)
	for _, sample := range samples {
		data = binary.LittleEndian.AppendUint32(data, uint32(sample))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write raw file: %v", err)
	}
	return path
}

func TestRawFileSource_ReadsSamples(t *testing.T) {
	want := []int32{1 << 16, -2 << 16, 3 << 16, -4 << 16}
	src, err := NewRawFileSource(writeRawFile(t, want), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRawFileSource: %v", err)
	}
	defer src.Close()

	buf := make([]int32, len(want))
	n, err := src.ReadSamples(context.Background(), buf)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if n != len(want) {
		t.Fatalf("ReadSamples returned %d samples, want %d", n, len(want))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf[i], want[i])
		}
	}
}

func TestRawFileSource_PartialBlockThenEOF(t *testing.T) {
	src, err := NewRawFileSource(writeRawFile(t, []int32{5, 6}), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRawFileSource: %v", err)
	}
	defer src.Close()

	buf := make([]int32, 8)
	n, err := src.ReadSamples(context.Background(), buf)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if n != 2 {
		t.Fatalf("ReadSamples returned %d samples, want partial count 2", n)
	}

	if _, err := src.ReadSamples(context.Background(), buf); !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples after stream end = %v, want io.EOF", err)
	}
}

func TestRawFileSource_DeadlineOnEmptyStream(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "empty.raw")
	if err := os.WriteFile(fifo, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	src, err := NewRawFileSource(fifo, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRawFileSource: %v", err)
	}
	defer src.Close()

	// Drain the pump's termination first so only the EOF path remains.
	buf := make([]int32, 4)
	if _, err := src.ReadSamples(context.Background(), buf); !errors.Is(err, io.EOF) && !errors.Is(err, repositories.ErrReadTimeout) {
		t.Errorf("ReadSamples on empty stream = %v, want io.EOF or ErrReadTimeout", err)
	}
}

func TestNewRawFileSource_MissingFile(t *testing.T) {
	if _, err := NewRawFileSource(filepath.Join(t.TempDir(), "nope.raw"), zap.NewNop()); err == nil {
		t.Error("NewRawFileSource on missing path should fail")
	}
}
