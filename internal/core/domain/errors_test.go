package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestOpErrorIs(t *testing.T) {
	err := NewOpError(ErrUpload, "upload", 500, "", nil)
	wrapped := fmt.Errorf("upload report.pdf: %w", err)

	if !errors.Is(wrapped, ErrUpload) {
		t.Error("expected wrapped OpError to match ErrUpload")
	}
	if errors.Is(wrapped, ErrDelete) {
		t.Error("OpError must not match other kinds")
	}
	if KindOf(wrapped) != ErrUpload {
		t.Errorf("KindOf = %v", KindOf(wrapped))
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", NewOpError(ErrUpload, "upload", 413, "  File too large ", nil), "File too large"},
		{"generic upload", NewOpError(ErrUpload, "upload", 500, "", nil), "Upload failed due to server error"},
		{"generic chat", NewOpError(ErrChat, "chat", 502, "", nil), "Sorry, I encountered an error processing your request."},
		{"bare kind", fmt.Errorf("x: %w", ErrPreviewUnavailable), "Could not preview document"},
		{"unknown", errors.New("boom"), "boom"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOpError(ErrFetch, "list documents", 0, "", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	want := "list documents: fetch failed: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
