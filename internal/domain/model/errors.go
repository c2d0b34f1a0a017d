package model

import (
	"errors"
	"fmt"
)

// Failure kinds reported by the prediction service client.
var (
	ErrServiceUnavailable = errors.New("prediction service unavailable")
	ErrRequestFailed      = errors.New("prediction request failed")
	ErrMalformedResponse  = errors.New("malformed prediction response")
)

// Failure kinds reported by the application service.
var (
	ErrBackpressure       = errors.New("batch queue is full")
	ErrDatasetUnavailable = errors.New("dataset not loaded")
)

// RequestFailedError carries the detail extracted from a non-success response.
type RequestFailedError struct {
	StatusCode int
	Detail     string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("failed to get ML predictions: %s", e.Detail)
}

// Is reports whether target is ErrRequestFailed.
func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}
