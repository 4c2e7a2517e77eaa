package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType classifies a scrape or prediction failure
type ErrorType string

const (
	// ErrorTypeStructureMismatch means a required markup node was absent
	// (site layout drift). Fatal to one ad, never to the crawl.
	ErrorTypeStructureMismatch ErrorType = "structure_mismatch"
	// ErrorTypeMalformedEmbeddedData means the embedded script payload
	// was truncated or unparsable.
	ErrorTypeMalformedEmbeddedData ErrorType = "malformed_embedded_data"
	// ErrorTypeMissingPrice means the embedded payload lacks the
	// authoritative price; the record is discarded, not stored.
	ErrorTypeMissingPrice ErrorType = "missing_price"
	// ErrorTypeUnparsableNumeric means a technical field expected to
	// contain digits does not.
	ErrorTypeUnparsableNumeric ErrorType = "unparsable_numeric"
	// ErrorTypeNetwork represents transport-level fetch failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeSystemic means the search endpoint itself is unusable;
	// the whole crawl epoch is restarted after a cooldown.
	ErrorTypeSystemic ErrorType = "systemic"
	// ErrorTypeStorage represents blob store failures
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublisher represents publisher failures
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents invalid input data
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents startup configuration errors,
	// the only kind allowed to terminate the process.
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError is the error type used across the worker.
type ScrapeError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether retrying the operation can help.
// Parsing failures are layout drift and stay broken until the
// extractor is updated.
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeSystemic, ErrorTypeStorage:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, component, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewStructureMismatch creates a markup drift error
func NewStructureMismatch(component, message string) *ScrapeError {
	return New(ErrorTypeStructureMismatch, component, message, nil)
}

// NewMalformedEmbeddedData creates an embedded payload error
func NewMalformedEmbeddedData(component, message string, err error) *ScrapeError {
	return New(ErrorTypeMalformedEmbeddedData, component, message, err)
}

// NewMissingPrice creates a missing authoritative price error
func NewMissingPrice(component, message string) *ScrapeError {
	return New(ErrorTypeMissingPrice, component, message, nil)
}

// NewUnparsableNumeric creates a numeric extraction error
func NewUnparsableNumeric(component, message string) *ScrapeError {
	return New(ErrorTypeUnparsableNumeric, component, message, nil)
}

// NewNetwork creates a transport error
func NewNetwork(component, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewSystemic creates a whole-crawl failure
func NewSystemic(component, message string, err error) *ScrapeError {
	return New(ErrorTypeSystemic, component, message, err)
}

// NewStorage creates a blob store error
func NewStorage(component, message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, component, message, err)
}

// NewPublisher creates a publisher error
func NewPublisher(component, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewValidation creates a validation error
func NewValidation(component, message string) *ScrapeError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a startup configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err is (or wraps) a ScrapeError of the given type.
func IsType(err error, errType ErrorType) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type == errType
	}
	return false
}
