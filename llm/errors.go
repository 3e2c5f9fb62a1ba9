package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType classifies a generation failure.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeRequest
	ErrorTypeResponse
	ErrorTypeAPI
	ErrorTypeTimeout
	ErrorTypeProvider
)

// GenerationError is the error returned for any failure of the external
// text-generation capability, including timeouts.
type GenerationError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) TypeString() string {
	switch e.Type {
	case ErrorTypeRequest:
		return "RequestError"
	case ErrorTypeResponse:
		return "ResponseError"
	case ErrorTypeAPI:
		return "APIError"
	case ErrorTypeTimeout:
		return "TimeoutError"
	case ErrorTypeProvider:
		return "ProviderError"
	default:
		return "UnknownError"
	}
}

func NewGenerationError(errType ErrorType, message string, err error) *GenerationError {
	return &GenerationError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// IsTimeout reports whether err is a timeout-classified generation failure
// or a context deadline expiry.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Type == ErrorTypeTimeout
}
