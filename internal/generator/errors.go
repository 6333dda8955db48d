package generator

import "fmt"

// TransportError means the remote call itself failed (network, auth, quota, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote call failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ShapeError means the remote call succeeded but its text did not parse into a valid report.
type ShapeError struct {
	Raw string
	Err error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid response shape: %v", e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// GenerationError is returned once transport failures exhaust every attempt.
type GenerationError struct {
	Attempts int
	Cause    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate bug report after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
