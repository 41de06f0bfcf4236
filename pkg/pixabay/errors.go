package pixabay

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrInvalidRequest is returned when Fetch arguments are out of range.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimited is returned when the local quota tracker refuses a request.
	ErrRateLimited = errors.New("request blocked: pixabay rate limit critical")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and local blocks.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents failures where no response was received.
	ErrorClassNetwork ErrorClass = "network"
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("pixabay network error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceError means Pixabay answered with a failure status.
type ServiceError struct {
	StatusCode int
	Status     string
	Message    string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pixabay %s error (status %d): %s", e.Class(), e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pixabay %s error (status %d)", e.Class(), e.StatusCode)
}

// Class returns the classification of the failure status.
func (e *ServiceError) Class() ErrorClass {
	return classifyStatus(e.StatusCode)
}

func classifyStatus(code int) ErrorClass {
	switch {
	case code == 429:
		return ErrorClassRateLimit
	case code >= 400 && code < 500:
		return ErrorClassClient
	case code >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Classify returns the ErrorClass of an error returned by Fetch, or "" when
// the error is of no known class.
func Classify(err error) ErrorClass {
	var netErr *NetworkError
	var svcErr *ServiceError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		return ErrorClassNetwork
	case errors.As(err, &svcErr):
		return svcErr.Class()
	case errors.Is(err, ErrRateLimited):
		return ErrorClassRateLimit
	default:
		return ""
	}
}
