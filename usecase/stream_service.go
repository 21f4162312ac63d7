package usecase

import (
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/domain/repositories"
	"github.com/satriahrh/arunika/device/internal/capture"
	"github.com/satriahrh/arunika/device/internal/protocol"
)

// StreamService ties the capture state, the producer, and the transport
// together: it reacts to control commands from the server (and the local
// API) and exposes a status snapshot.
type StreamService struct {
	state     *capture.State
	producer  *capture.Producer
	transport repositories.FrameTransport
	logger    *zap.Logger
}

// Status is the capture state snapshot served by the local API.
type Status struct {
	Connected bool `json:"connected"`
	Enabled   bool `json:"enabled"`
	capture.Counters
}

// NewStreamService creates the streaming orchestrator.
func NewStreamService(
	state *capture.State,
	producer *capture.Producer,
	transport repositories.FrameTransport,
	logger *zap.Logger,
) *StreamService {
	return &StreamService{
		state:     state,
		producer:  producer,
		transport: transport,
		logger:    logger,
	}
}

// HandleCommand implements the websocket command handler. Commands are
// idempotent: repeated mic_on or mic_off toggles are plain flag stores.
func (s *StreamService) HandleCommand(cmd protocol.Command) {
	switch cmd {
	case protocol.CommandMicOn:
		s.SetEnabled(true)
	case protocol.CommandMicOff:
		s.SetEnabled(false)
	case protocol.CommandMicCheck:
		s.reportStatus()
	default:
		s.logger.Warn("unhandled command", zap.String("command", string(cmd)))
	}
}

// SetEnabled flips the capture flag and reports the new state to the server.
func (s *StreamService) SetEnabled(on bool) {
	s.state.SetEnabled(on)
	s.logger.Info("capture flag updated", zap.Bool("enabled", on))
	s.reportStatus()
}

// Status returns the current snapshot.
func (s *StreamService) Status() Status {
	return Status{
		Connected: s.state.Connected(),
		Enabled:   s.state.Enabled(),
		Counters:  s.producer.Counters(),
	}
}

// reportStatus sends a mic_status message on the text channel. A send
// failure while disconnected is expected and only logged at debug.
func (s *StreamService) reportStatus() {
	msg, err := protocol.EncodeText(protocol.NewMicStatusMessage(s.state.Connected(), s.state.Enabled()))
	if err != nil {
		s.logger.Error("encode status message", zap.Error(err))
		return
	}
	if err := s.transport.SendText(msg); err != nil {
		s.logger.Debug("status message not delivered", zap.Error(err))
	}
}
