package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds, one per operation that can fail at the API boundary
var (
	ErrFetch              = errors.New("fetch failed")
	ErrFormat             = errors.New("unexpected response format")
	ErrUpload             = errors.New("upload failed")
	ErrDelete             = errors.New("delete failed")
	ErrChat               = errors.New("chat failed")
	ErrRegenerate         = errors.New("summary regeneration failed")
	ErrPreviewUnavailable = errors.New("preview unavailable")
	ErrVerify             = errors.New("verification failed")
	ErrAuth               = errors.New("authentication failed")
	ErrNotFound           = errors.New("document not found")
	ErrCancelled          = errors.New("cancelled")
)

// genericMessages are shown when the server did not say anything useful
var genericMessages = map[error]string{
	ErrFetch:              "Failed to load data from the server",
	ErrFormat:             "Received invalid response (not JSON). The API URL might be incorrect or blocking requests.",
	ErrUpload:             "Upload failed due to server error",
	ErrDelete:             "Failed to delete document",
	ErrChat:               "Sorry, I encountered an error processing your request.",
	ErrRegenerate:         "Failed to regenerate summary",
	ErrPreviewUnavailable: "Could not preview document",
	ErrVerify:             "Verification failed",
	ErrAuth:               "An error occurred during authentication",
	ErrNotFound:           "Document not found",
	ErrCancelled:          "Operation cancelled",
}

// OpError is a failure of a single API operation
type OpError struct {
	Kind    error  // one of the Err* kinds above
	Op      string // "list documents", "upload", ...
	Status  int    // HTTP status, 0 when the request never completed
	Message string // server-provided message, may be empty
	Err     error  // underlying transport or decode error, may be nil
}

func (e *OpError) Error() string {
	if e == nil {
		return "operation error"
	}
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is makes errors.Is(err, ErrUpload) match an *OpError of that kind
func (e *OpError) Is(target error) bool {
	return e != nil && e.Kind == target
}

// HTTPStatus exposes the status for retry classification
func (e *OpError) HTTPStatus() int {
	return e.Status
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError builds an *OpError
func NewOpError(kind error, op string, status int, message string, err error) *OpError {
	return &OpError{
		Kind:    kind,
		Op:      op,
		Status:  status,
		Message: strings.TrimSpace(message),
		Err:     err,
	}
}

// UserMessage renders the human-readable text of an error: the server message when
// one was provided, otherwise the generic message of its kind.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var opErr *OpError
	if errors.As(err, &opErr) {
		if opErr.Message != "" {
			return opErr.Message
		}
		if msg, ok := genericMessages[opErr.Kind]; ok {
			return msg
		}
	}

	for kind, msg := range genericMessages {
		if errors.Is(err, kind) {
			return msg
		}
	}
	return err.Error()
}

// KindOf returns the error kind of err, or nil when it has none
func KindOf(err error) error {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	for kind := range genericMessages {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
