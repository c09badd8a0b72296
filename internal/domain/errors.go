package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed fetch or store operation. Every kind is
// recoverable: the coordinator's response to all of them is to keep the
// previous snapshot and record the kind.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota

	// Network layer.
	KindConnectionFailed
	KindHTTPStatus
	KindTimeout
	KindMalformedResponse

	// Storage layer.
	KindEmptyDataset
	KindCorruptData
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectionFailed:
		return "connection_failed"
	case KindHTTPStatus:
		return "http_error"
	case KindTimeout:
		return "timeout"
	case KindMalformedResponse:
		return "malformed_response"
	case KindEmptyDataset:
		return "empty_dataset"
	case KindCorruptData:
		return "corrupt_data"
	default:
		return "unknown"
	}
}

// FeedError is a classified failure. Status is set only for KindHTTPStatus.
type FeedError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *FeedError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("%s (%d): %v", e.Kind, e.Status, e.Err)
	}
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

// NewFeedError wraps err with a classification.
func NewFeedError(kind ErrorKind, err error) *FeedError {
	return &FeedError{Kind: kind, Err: err}
}

// NewHTTPStatusError records a non-2xx upstream response.
func NewHTTPStatusError(status int) *FeedError {
	return &FeedError{Kind: KindHTTPStatus, Status: status, Err: fmt.Errorf("unexpected status %d", status)}
}

// KindOf extracts the classification from err, or KindUnknown when err
// carries none. A nil error has no kind and also maps to KindUnknown;
// callers check err != nil first.
func KindOf(err error) ErrorKind {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
