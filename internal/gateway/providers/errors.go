package providers

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey means the inference credential is not configured. The call
// fails closed before any network access.
var ErrNoAPIKey = errors.New("inference API key not configured")

// UnknownModelError is returned when a model identifier is not present in
// the registry table.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %s", e.Model)
}

// UnsupportedEditError is returned when an edit is requested for a model
// that does not accept image input.
type UnsupportedEditError struct {
	Model string
}

func (e *UnsupportedEditError) Error() string {
	return fmt.Sprintf("model %s does not support image editing", e.Model)
}

// UpstreamError is a non-success HTTP status from the inference provider.
// The provider's status code and raw body are carried for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// MissingOutputError means the provider returned a success status but the
// payload carried no usable image. JobStatus holds the observed job status
// for job-style responses ("PENDING", "FAILED", ...).
type MissingOutputError struct {
	JobStatus string
}

func (e *MissingOutputError) Error() string {
	if e.JobStatus != "" {
		return fmt.Sprintf("image not ready or missing outputs (status: %s)", e.JobStatus)
	}
	return "response contained no image output"
}

// MalformedImageError means the selected output could not be base64-decoded.
type MalformedImageError struct {
	Err error
}

func (e *MalformedImageError) Error() string {
	return fmt.Sprintf("malformed base64 image data: %v", e.Err)
}

func (e *MalformedImageError) Unwrap() error { return e.Err }
