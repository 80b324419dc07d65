package ecoflow

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSerial is returned when an operation needs a device serial number.
	ErrMissingSerial = errors.New("ecoflow: device serial number is required")

	// ErrDecode is returned for a response body that is not a JSON envelope.
	ErrDecode = errors.New("ecoflow: decode response")
)

// APIError is a response whose envelope code is not "0".
type APIError struct {
	Code    string
	Message string
	TraceID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ecoflow: api error code %s", e.Code)
	}
	return fmt.Sprintf("ecoflow: api error code %s: %s", e.Code, e.Message)
}

// HTTPError is a non-2xx response that carried no usable envelope.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ecoflow: unexpected HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
