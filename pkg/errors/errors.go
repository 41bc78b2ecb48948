package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeInvalidURL represents malformed watch-item input
	ErrorTypeInvalidURL ErrorType = "invalid_url"
	// ErrorTypeFetch represents network, timeout and HTTP status errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeExtraction represents HTML parsing errors
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypePersistence represents store errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeNotification represents alert delivery errors
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// WatchError represents a pipeline-specific error
type WatchError struct {
	Type       ErrorType
	URL        string
	StatusCode int
	Message    string
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *WatchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("[%s] %s: %s (status %d)", e.Type, e.URL, e.Message, e.StatusCode)
	case e.Err != nil && e.URL != "":
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.URL, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s - %v", e.Type, e.Message, e.Err)
	case e.URL != "":
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.URL, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *WatchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the next poll cycle may succeed where this
// attempt failed. Only fetch errors qualify; a cycle itself never retries.
func (e *WatchError) IsRetryable() bool {
	return e.Type == ErrorTypeFetch
}

// New creates a new WatchError
func New(errType ErrorType, url, message string, err error) *WatchError {
	return &WatchError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewInvalidURL creates a new invalid-input error
func NewInvalidURL(raw, message string) *WatchError {
	return New(ErrorTypeInvalidURL, raw, message, nil)
}

// NewFetch creates a new fetch error wrapping a network cause
func NewFetch(url, message string, err error) *WatchError {
	return New(ErrorTypeFetch, url, message, err)
}

// NewFetchStatus creates a new fetch error carrying an HTTP status code
func NewFetchStatus(url string, status int) *WatchError {
	e := New(ErrorTypeFetch, url, "unexpected status", nil)
	e.StatusCode = status
	return e
}

// NewExtraction creates a new extraction error
func NewExtraction(url, message string, err error) *WatchError {
	return New(ErrorTypeExtraction, url, message, err)
}

// NewPersistence creates a new persistence error
func NewPersistence(message string, err error) *WatchError {
	return New(ErrorTypePersistence, "", message, err)
}

// NewNotification creates a new notification error
func NewNotification(destination string, err error) *WatchError {
	return New(ErrorTypeNotification, "", "delivery to "+destination+" failed", err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *WatchError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err is a WatchError of the given type
func IsType(err error, t ErrorType) bool {
	var we *WatchError
	if stderrors.As(err, &we) {
		return we.Type == t
	}
	return false
}
