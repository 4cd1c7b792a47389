package ports

import (
	"context"
	"io"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// UploadRequest is a file submitted for storage, hashing and summarization
type UploadRequest struct {
	Filename string
	Content  io.Reader
	Tags     string // comma-separated, "Finance, Legal"
}

// DocumentAPI is the port to the remote document backend.
// Implementations hold no mutable state between calls.
type DocumentAPI interface {
	// ListDocuments returns every document, normalized
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// UploadDocument stores a new document and returns the created record
	UploadDocument(ctx context.Context, req UploadRequest) (domain.Document, error)

	// DeleteDocument removes a document. Success is decided by HTTP status only.
	DeleteDocument(ctx context.Context, id string) error

	// PreviewURL resolves a viewable location for a document without an inline URL
	PreviewURL(ctx context.Context, id string) (string, error)

	// Chat asks a question about a single document
	Chat(ctx context.Context, id, question string) (string, error)

	// RegenerateSummary reruns the AI summary job
	RegenerateSummary(ctx context.Context, id string) (domain.Summary, error)

	// FetchStats returns the server stat cards. An empty result means the
	// server has none, not that everything is zero.
	FetchStats(ctx context.Context) ([]domain.Stat, error)

	// Verify compares a SHA-256 hex digest against the stored document hash
	Verify(ctx context.Context, id, hash string) (bool, error)
}

// Confirmer is the human decision gate for destructive actions
type Confirmer interface {
	// Confirm blocks until the user accepts or declines
	Confirm(ctx context.Context, doc domain.Document) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface
type ConfirmFunc func(ctx context.Context, doc domain.Document) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, doc domain.Document) (bool, error) {
	return f(ctx, doc)
}

// Authenticator is the port to the identity provider
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, session *domain.Session) error
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
}

// SessionStore persists the current session between runs
type SessionStore interface {
	// Load returns nil and no error when nobody is signed in
	Load() (*domain.Session, error)
	Save(session *domain.Session) error
	Clear() error
}

// FileOpener defines the port for opening files or URLs with default applications
type FileOpener interface {
	// Open opens a local path or URL with the configured viewer
	Open(ctx context.Context, target string) error
}

// TagSuggester proposes tags for a file about to be uploaded
type TagSuggester interface {
	Suggest(path string) []string
}
