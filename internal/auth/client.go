// Package auth implements the device side of the companion server's
// device-auth flow: exchange the serial number and secret key for a JWT, and
// refresh it shortly before expiry.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// refreshMargin is how long before expiry a cached token is considered
// stale.
const refreshMargin = 5 * time.Minute

// DeviceAuthRequest is the payload for the device auth endpoint.
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number"`
	SecretKey    string `json:"secret_key"`
}

// DeviceAuthResponse is the server's reply.
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// Client caches a device token and re-authenticates when it nears expiry.
// Safe for concurrent use; the websocket client requests a token on every
// dial attempt.
type Client struct {
	endpoint     string
	serialNumber string
	secretKey    string
	httpClient   *http.Client
	logger       *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	deviceID  string
}

// NewClient builds an auth client for the given endpoint, typically
// https://<server>/api/v1/device/auth.
func NewClient(endpoint, serialNumber, secretKey string, logger *zap.Logger) *Client {
	return &Client{
		endpoint:     endpoint,
		serialNumber: serialNumber,
		secretKey:    secretKey,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// Token returns a valid device token, re-authenticating if the cached one is
// missing or about to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.expiresAt) > refreshMargin {
		return c.token, nil
	}
	if err := c.authenticate(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

// DeviceID returns the server-assigned device ID from the last successful
// authentication, or empty if none has happened yet.
func (c *Client) DeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

// authenticate exchanges the device credentials for a token. Caller holds
// the mutex.
func (c *Client) authenticate(ctx context.Context) error {
	body, err := json.Marshal(DeviceAuthRequest{
		SerialNumber: c.serialNumber,
		SecretKey:    c.secretKey,
	})
	if err != nil {
		return fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("device auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device auth failed with status %d", resp.StatusCode)
	}

	var authResp DeviceAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}

	c.token = authResp.Token
	c.deviceID = authResp.DeviceID
	c.expiresAt = authResp.ExpiresAt
	if c.expiresAt.IsZero() {
		// Some deployments omit expires_at; fall back to the token's own
		// registered claims. The server holds the signing secret, so the
		// claims are read without verification.
		if exp, err := tokenExpiry(authResp.Token); err == nil {
			c.expiresAt = exp
		} else {
			c.expiresAt = time.Now().Add(time.Hour)
		}
	}

	c.logger.Info("device authenticated",
		zap.String("device_id", c.deviceID),
		zap.Time("expires_at", c.expiresAt))
	return nil
}

// tokenExpiry reads the exp claim from a JWT without verifying it.
func tokenExpiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry")
	}
	return exp.Time, nil
}
