// Package websocket implements the device side of the companion-server
// uplink: a reconnecting client that streams audio frames out and receives
// microphone control commands in.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/domain/repositories"
	"github.com/satriahrh/arunika/device/internal/capture"
	"github.com/satriahrh/arunika/device/internal/protocol"
	"github.com/satriahrh/arunika/device/internal/telemetry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Commands are tiny.
	maxMessageSize = 4 * 1024

	// Handshake timeout for each dial attempt.
	handshakeTimeout = 10 * time.Second

	// DefaultReconnectInterval is the pause between dial attempts.
	DefaultReconnectInterval = 5 * time.Second
)

// TokenFunc supplies a fresh bearer token for each dial attempt.
type TokenFunc func(ctx context.Context) (string, error)

// CommandHandler reacts to control commands received on the text channel.
type CommandHandler interface {
	HandleCommand(cmd protocol.Command)
}

// Client maintains the connection to the companion server. It implements
// repositories.FrameTransport; sends are serialized with a mutex so the
// capture task and the ping ticker never interleave writes.
type Client struct {
	url               string
	deviceID          string
	token             TokenFunc
	state             *capture.State
	handler           CommandHandler
	metrics           *telemetry.Metrics
	logger            *zap.Logger
	reconnectInterval time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient builds a client for the given WebSocket URL. token may be nil
// when the server does not require device auth. The command handler is wired
// afterwards with SetCommandHandler, since the handler itself needs the
// client as its transport.
func NewClient(
	url string,
	deviceID string,
	token TokenFunc,
	state *capture.State,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *Client {
	return &Client{
		url:               url,
		deviceID:          deviceID,
		token:             token,
		state:             state,
		metrics:           metrics,
		logger:            logger,
		reconnectInterval: DefaultReconnectInterval,
	}
}

// SetCommandHandler installs the handler for inbound control commands. Must
// be called before Run.
func (c *Client) SetCommandHandler(handler CommandHandler) {
	c.handler = handler
}

// SetReconnectInterval overrides the pause between dial attempts.
func (c *Client) SetReconnectInterval(d time.Duration) {
	if d > 0 {
		c.reconnectInterval = d
	}
}

// IsConnected implements repositories.FrameTransport.
func (c *Client) IsConnected() bool {
	return c.state.Connected()
}

// SendBinary implements repositories.FrameTransport.
func (c *Client) SendBinary(payload []byte) error {
	return c.write(websocket.BinaryMessage, payload)
}

// SendText implements repositories.FrameTransport.
func (c *Client) SendText(payload string) error {
	return c.write(websocket.TextMessage, []byte(payload))
}

func (c *Client) write(messageType int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return repositories.ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// Run dials the server and services the connection until the context is
// cancelled, redialing after reconnectInterval whenever the connection drops.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connectAndServe(ctx); err != nil {
			c.logger.Warn("connection lost", zap.Error(err))
		}

		timer := time.NewTimer(c.reconnectInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// connectAndServe performs one dial attempt and, on success, pumps inbound
// messages until the connection fails.
func (c *Client) connectAndServe(ctx context.Context) error {
	header := http.Header{}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.state.SetConnected(true)
	c.metrics.ConnectionUp.Add(ctx, 1)
	c.logger.Info("connected to server", zap.String("url", c.url))

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		c.state.SetConnected(false)
		c.metrics.ConnectionUp.Add(ctx, -1)
		conn.Close()
	}()

	// Announce the device so the web interface can light up.
	if msg, err := protocol.EncodeText(protocol.NewInfoMessage(c.deviceID)); err == nil {
		if err := c.SendText(msg); err != nil {
			return err
		}
	}

	// Close the connection when the context ends so readPump unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	go c.pingLoop(done)

	return c.readPump(conn)
}

// readPump dispatches inbound messages. Text frames carry control commands;
// anything else is ignored.
func (c *Client) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("websocket read error", zap.Error(err))
			}
			return err
		}

		switch messageType {
		case websocket.TextMessage:
			cmd, err := protocol.ParseCommand(message)
			if err != nil {
				c.logger.Warn("ignoring message", zap.Error(err))
				if reply, encErr := protocol.EncodeText(protocol.NewErrorMessage(err.Error())); encErr == nil {
					// Best effort; the connection error surfaces on the
					// next read anyway.
					_ = c.SendText(reply)
				}
				continue
			}
			if c.handler != nil {
				c.handler.HandleCommand(cmd)
			}
		default:
			c.logger.Warn("ignoring unexpected message type", zap.Int("type", messageType))
		}
	}
}

// pingLoop keeps the connection alive; it exits when the connection is torn
// down.
func (c *Client) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.mu.Unlock()
					return
				}
			}
			c.mu.Unlock()
		}
	}
}
