package model

// RequestIDHeader carries the request id in requests and responses.
const RequestIDHeader = "X-Request-ID"

// ErrorResponse is the JSON body of every local API error. Code is a stable
// machine-readable kind; RequestID matches the X-Request-ID response header.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
