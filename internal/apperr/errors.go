package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("event not found")
	ErrNoRemoteListing = errors.New("event does not have an associated ticketing listing")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "Missing required field: " + e.Field
	}
	return fmt.Sprintf("Invalid field %s: %s", e.Field, e.Reason)
}

// ConfigurationError lists the settings that are required but absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "ticketing integration not configured: missing " + strings.Join(e.Missing, ", ")
}

// RemoteServiceError carries the upstream status and body of a failed
// ticketing call. StatusCode is 0 when the request never got a response.
type RemoteServiceError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("ticketing %s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("ticketing %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
