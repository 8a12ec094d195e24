package internal

import (
	"errors"
	"fmt"
)

// Guard rejections returned by Controller.Ask. None of them changes state.
var (
	ErrEmptyQuery  = errors.New("query is empty")
	ErrNoSession   = errors.New("no session identifier available")
	ErrAskInFlight = errors.New("an answer is already pending")

	// ErrThreadReset is returned for an answer that arrived after its thread
	// was reset. The answer is dropped.
	ErrThreadReset = errors.New("thread was reset while the answer was pending")
)

// StorageError represents errors accessing the on-device store
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing persisted or received data
type ParseError struct {
	Source string // "kv", "response", "config"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during transcript export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies answer gateway failures.
type ErrorKind int

const (
	// KindTransport means the service could not be invoked or replied with a
	// non-success status.
	KindTransport ErrorKind = iota
	// KindInvalidPayload means the reply was not a JSON object.
	KindInvalidPayload
	// KindMissingIdentity means the reply lacked a valid session_id or thread_id.
	KindMissingIdentity
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindInvalidPayload:
		return "invalid_payload"
	case KindMissingIdentity:
		return "missing_identity"
	default:
		return "unknown"
	}
}

const (
	msgInvalidPayload  = "Invalid response payload"
	msgMissingIdentity = "Backend response missing session_id/thread_id"
)

// GatewayError is the single normalized shape for every answer gateway failure.
// Body holds whatever best explains the failure: the decoded error reply, the
// raw payload, or the underlying Go error.
type GatewayError struct {
	Kind       ErrorKind
	Name       string
	Message    string
	Status     int
	StatusText string
	Body       interface{}
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Name, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AsGatewayError extracts a *GatewayError from err, if any.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
