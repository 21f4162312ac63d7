package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/domain/entities"
	"github.com/satriahrh/arunika/device/domain/repositories"
	"github.com/satriahrh/arunika/device/internal/protocol"
	"github.com/satriahrh/arunika/device/internal/telemetry"
)

// WireFormat selects the transport encoding for emitted frames.
type WireFormat string

const (
	// WireFormatBinary is the canonical framed binary format.
	WireFormatBinary WireFormat = "binary"
	// WireFormatJSON is the legacy JSON packet, kept for older receivers.
	WireFormatJSON WireFormat = "json"
)

// Config tunes the producer loop. Zero values are replaced by defaults in
// NewProducer.
type Config struct {
	// BlockSize is the number of samples acquired per cycle.
	BlockSize int
	// SampleRate in Hz, reported in legacy JSON packets.
	SampleRate int
	// Gain is the fixed multiplier applied after bit-depth conversion.
	Gain float64
	// SilencePeak and SilenceRMS gate emission: a block below both
	// thresholds is treated as silence.
	SilencePeak int16
	SilenceRMS  float64
	// ReadTimeout bounds the blocking source read.
	ReadTimeout time.Duration
	// IdleDelay is the sleep between cycles while disconnected or disabled.
	IdleDelay time.Duration
	// ErrorBackoff is the sleep after a failed source read.
	ErrorBackoff time.Duration
	// Format selects the wire encoding.
	Format WireFormat
	// LegacyStride thins legacy JSON packets to every nth sample.
	LegacyStride int
}

func (c *Config) applyDefaults() {
	if c.BlockSize <= 0 {
		c.BlockSize = 512
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.Gain == 0 {
		c.Gain = 1.0
	}
	if c.SilencePeak <= 0 {
		c.SilencePeak = 200
	}
	if c.SilenceRMS <= 0 {
		c.SilenceRMS = 60
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 100 * time.Millisecond
	}
	if c.IdleDelay <= 0 {
		c.IdleDelay = 100 * time.Millisecond
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 100 * time.Millisecond
	}
	if c.Format == "" {
		c.Format = WireFormatBinary
	}
	if c.LegacyStride <= 0 {
		c.LegacyStride = 4
	}
}

// Counters is a snapshot of the producer's running totals, for the local
// status API.
type Counters struct {
	Emitted    uint64 `json:"frames_emitted"`
	Suppressed uint64 `json:"frames_suppressed"`
	Dropped    uint64 `json:"frames_dropped"`
	ReadErrors uint64 `json:"read_errors"`
	Sequence   uint16 `json:"sequence"`
}

// Producer owns the acquisition buffers and runs the capture loop. It is the
// single task allowed to touch the buffers; only the State flags are shared.
type Producer struct {
	source    repositories.AudioSource
	transport repositories.FrameTransport
	indicator repositories.LevelIndicator
	state     *State
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	cfg       Config

	// Buffers reused across cycles so steady state allocates nothing.
	raw     []int32
	samples []int16
	wire    []byte

	seq        atomic.Uint32 // low 16 bits; atomic only for status reads
	emitted    atomic.Uint64
	suppressed atomic.Uint64
	dropped    atomic.Uint64
	readErrors atomic.Uint64
}

// NewProducer preallocates the acquisition buffers. The source's native bit
// width drives the conversion shift.
func NewProducer(
	source repositories.AudioSource,
	transport repositories.FrameTransport,
	indicator repositories.LevelIndicator,
	state *State,
	metrics *telemetry.Metrics,
	cfg Config,
	logger *zap.Logger,
) *Producer {
	cfg.applyDefaults()
	return &Producer{
		source:    source,
		transport: transport,
		indicator: indicator,
		state:     state,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		raw:       make([]int32, cfg.BlockSize),
		samples:   make([]int16, cfg.BlockSize),
		wire:      make([]byte, 0, protocol.HeaderSize+cfg.BlockSize*2),
	}
}

// Run drives cycles until the context is cancelled. All steady-state errors
// are absorbed inside the cycle; Run only returns on cancellation.
func (p *Producer) Run(ctx context.Context) error {
	p.logger.Info("capture loop started",
		zap.Int("blockSize", p.cfg.BlockSize),
		zap.Int("sampleRate", p.cfg.SampleRate),
		zap.String("format", string(p.cfg.Format)))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("capture loop stopped")
			return ctx.Err()
		default:
		}
		p.runCycle(ctx)
	}
}

// runCycle performs one acquisition cycle: read, convert, meter, gate, frame,
// send, feedback. When the producer is not connected-and-enabled it only
// updates the feedback output and sleeps.
func (p *Producer) runCycle(ctx context.Context) {
	if !p.state.Ready() {
		p.indicator.SetIntensity(0)
		p.sleep(ctx, p.cfg.IdleDelay)
		return
	}

	readCtx, cancel := context.WithTimeout(ctx, p.cfg.ReadTimeout)
	n, err := p.source.ReadSamples(readCtx, p.raw)
	cancel()
	if err != nil {
		p.readErrors.Add(1)
		p.metrics.ReadErrors.Add(ctx, 1)
		if errors.Is(err, repositories.ErrReadTimeout) || errors.Is(err, context.DeadlineExceeded) {
			p.logger.Debug("audio source read timed out")
			return
		}
		p.logger.Warn("audio source read failed", zap.Error(err))
		p.sleep(ctx, p.cfg.ErrorBackoff)
		return
	}
	if n == 0 {
		return
	}

	count := ConvertBlock(p.raw[:n], p.samples, p.source.SourceBits(), p.cfg.Gain)
	block := p.samples[:count]
	metrics := entities.ComputeMetrics(block)

	if metrics.IsSilentBelow(p.cfg.SilencePeak, p.cfg.SilenceRMS) {
		p.suppressed.Add(1)
		p.metrics.FramesSuppressed.Add(ctx, 1)
		p.indicator.SetIntensity(0)
		return
	}

	// Sequence advances per framed block, so a frame lost in transit still
	// leaves a gap the receiver can detect.
	seq := uint16(p.seq.Load())
	p.seq.Store(uint32(seq + 1))

	if err := p.emit(seq, block); err != nil {
		p.dropped.Add(1)
		p.metrics.FramesDropped.Add(ctx, 1)
		p.logger.Warn("frame dropped", zap.Uint16("sequence", seq), zap.Error(err))
	} else {
		p.emitted.Add(1)
		p.metrics.FramesEmitted.Add(ctx, 1)
		p.metrics.FrameRMS.Record(ctx, metrics.RMS)
	}

	p.indicator.SetIntensity(IntensityFromRMS(metrics.RMS))
}

// emit delivers one block as a single transport message in the configured
// wire format.
func (p *Producer) emit(seq uint16, block []int16) error {
	if p.cfg.Format == WireFormatJSON {
		return p.transport.SendText(protocol.EncodeLegacyAudio(block, p.cfg.SampleRate, p.cfg.LegacyStride))
	}
	p.wire = protocol.AppendAudioFrame(p.wire[:0], seq, block)
	return p.transport.SendBinary(p.wire)
}

// Counters returns a snapshot of the running totals.
func (p *Producer) Counters() Counters {
	return Counters{
		Emitted:    p.emitted.Load(),
		Suppressed: p.suppressed.Load(),
		Dropped:    p.dropped.Load(),
		ReadErrors: p.readErrors.Load(),
		Sequence:   uint16(p.seq.Load()),
	}
}

func (p *Producer) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
