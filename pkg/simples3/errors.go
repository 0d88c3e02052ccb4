package simples3

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrEmptyCredentials indicates the client was built without an access key pair
	ErrEmptyCredentials = errors.New("access key and secret key are required")

	// ErrEmptyBucket indicates the client was built without a bucket name
	ErrEmptyBucket = errors.New("bucket name is required")

	// ErrEmptyKey indicates an operation was called with an empty object key
	ErrEmptyKey = errors.New("object key is required")

	// ErrObjectNotFound indicates the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrNotSeekable indicates a reader payload cannot rewind to its start
	ErrNotSeekable = errors.New("payload reader does not support seeking back to start")
)

// ProtocolError is a non-2xx response from the storage service. The
// request itself was delivered; the service refused it. Code carries the
// service's error code (e.g. NoSuchKey, SignatureDoesNotMatch) when the
// body could be parsed, and Body always holds the raw response so callers
// can decide policy.
type ProtocolError struct {
	Op         string
	Key        string
	StatusCode int
	Code       string
	Body       []byte
}

func (e *ProtocolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("s3 %s %q: status %d (%s)", e.Op, e.Key, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("s3 %s %q: status %d", e.Op, e.Key, e.StatusCode)
}

// Unwrap maps a 404 onto ErrObjectNotFound so callers can use errors.Is
// without inspecting status codes.
func (e *ProtocolError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrObjectNotFound
	}
	return nil
}

// ParseError is a malformed listing body. It is distinct from
// ProtocolError: the HTTP exchange succeeded, the payload did not decode.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("s3 %s: parsing response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
