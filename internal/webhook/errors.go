package webhook

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSignature indicates the signature header is absent or not "sha256=<hex>".
	ErrMissingSignature = errors.New("missing or malformed signature header")

	// ErrInvalidSignature indicates the HMAC did not match the body.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrSecretNotConfigured indicates signature validation is on without a secret.
	ErrSecretNotConfigured = errors.New("webhook secret not configured")

	// ErrInvalidJSON indicates the body is not a JSON object.
	ErrInvalidJSON = errors.New("invalid JSON payload")

	// ErrUnknownEventType indicates a "type" outside the supported set.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrMissingField indicates a required payload field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidField indicates a field is present but unusable (bad status, bad timestamp).
	ErrInvalidField = errors.New("invalid field")

	// ErrQueueFull indicates the event queue is at capacity.
	ErrQueueFull = errors.New("queue full")

	// ErrStopping is returned by Start while a previous Stop is still waiting on the loop.
	ErrStopping = errors.New("processor is stopping")
)

// ValidationError is an authenticity failure at ingress. It never reaches the queue.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "webhook validation: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// ProcessingError covers malformed payloads, unsupported events and queue rejection.
type ProcessingError struct {
	Message string // caller-facing text
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook processing: %s: %v", e.Message, e.Err)
	}
	return "webhook processing: " + e.Message
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// HandlerError wraps a failure from one registered handler.
type HandlerError struct {
	Handler string
	EventID string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed on event %s: %v", e.Handler, e.EventID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// InternalError is anything unanticipated caught at the top of ProcessWebhook.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return "webhook internal error: " + e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }

func newProcessingError(msg string, err error) *ProcessingError {
	return &ProcessingError{Message: msg, Err: err}
}

// SafeMessage is the text returned to webhook callers. It carries no payload or secret material.
func SafeMessage(err error) string {
	var (
		validationErr *ValidationError
		processingErr *ProcessingError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		if errors.Is(err, ErrMissingSignature) {
			return ErrMissingSignature.Error()
		}
		if errors.Is(err, ErrSecretNotConfigured) {
			return ErrSecretNotConfigured.Error()
		}
		return ErrInvalidSignature.Error()
	case errors.As(err, &processingErr):
		return processingErr.Message
	default:
		return "internal error"
	}
}
