package api

// CaptureRequest toggles the capture flag through the local API.
type CaptureRequest struct {
	Enabled bool `json:"enabled"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
