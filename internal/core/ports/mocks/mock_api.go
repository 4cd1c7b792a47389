package mocks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
)

// MockAPI is an in-memory implementation of the DocumentAPI port for testing.
// Setting one of the *Err fields makes the matching operation fail.
type MockAPI struct {
	mu    sync.RWMutex
	docs  []domain.Document
	stats []domain.Stat

	previewURLs map[string]string
	answers     map[string]string
	summaries   map[string]domain.Summary

	ListErr       error
	StatsErr      error
	UploadErr     error
	DeleteErr     error
	PreviewErr    error
	ChatErr       error
	RegenerateErr error

	// StatsFromDocs makes FetchStats report the current document total
	StatsFromDocs bool

	Calls    map[string]int
	Uploaded []ports.UploadRequest
	nextID   int
}

// NewMockAPI creates a mock backend seeded with documents
func NewMockAPI(docs ...domain.Document) *MockAPI {
	return &MockAPI{
		docs:        append([]domain.Document(nil), docs...),
		previewURLs: make(map[string]string),
		answers:     make(map[string]string),
		summaries:   make(map[string]domain.Summary),
		Calls:       make(map[string]int),
	}
}

// SetStats sets the server stat cards
func (m *MockAPI) SetStats(stats []domain.Stat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
}

// SetPreviewURL registers the lazily resolved URL of a document
func (m *MockAPI) SetPreviewURL(id, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previewURLs[id] = url
}

// SetAnswer registers the chat answer for a document
func (m *MockAPI) SetAnswer(id, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[id] = answer
}

// SetSummary registers the regenerated summary for a document
func (m *MockAPI) SetSummary(id string, s domain.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[id] = s
}

// CallCount returns how many times an operation was invoked
func (m *MockAPI) CallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Calls[op]
}

func (m *MockAPI) record(op string) {
	m.mu.Lock()
	m.Calls[op]++
	m.mu.Unlock()
}

func (m *MockAPI) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	m.record("list")
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]domain.Document(nil), m.docs...), nil
}

func (m *MockAPI) UploadDocument(ctx context.Context, req ports.UploadRequest) (domain.Document, error) {
	m.record("upload")
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadErr != nil {
		return domain.Document{}, m.UploadErr
	}
	if req.Content != nil {
		if _, err := io.Copy(io.Discard, req.Content); err != nil {
			return domain.Document{}, err
		}
	}

	m.nextID++
	doc := domain.Document{
		ID:                 fmt.Sprintf("up-%d", m.nextID),
		Name:               req.Filename,
		Size:               "1 KB",
		Date:               "2024-06-01",
		Hash:               domain.HashPending,
		AIStatus:           domain.AIQueued,
		VerificationStatus: domain.Mining,
		Type:               domain.ParseDocType(extension(req.Filename)),
	}
	m.docs = append([]domain.Document{doc}, m.docs...)
	m.Uploaded = append(m.Uploaded, req)
	return doc, nil
}

func (m *MockAPI) DeleteDocument(ctx context.Context, id string) error {
	m.record("delete")
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return domain.NewOpError(domain.ErrDelete, "delete document", 404, "", nil)
}

func (m *MockAPI) PreviewURL(ctx context.Context, id string) (string, error) {
	m.record("preview")
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.PreviewErr != nil {
		return "", m.PreviewErr
	}
	url, ok := m.previewURLs[id]
	if !ok {
		return "", domain.NewOpError(domain.ErrPreviewUnavailable, "preview", 404, "", nil)
	}
	return url, nil
}

func (m *MockAPI) Chat(ctx context.Context, id, question string) (string, error) {
	m.record("chat")
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ChatErr != nil {
		return "", m.ChatErr
	}
	if answer, ok := m.answers[id]; ok {
		return answer, nil
	}
	return "echo: " + question, nil
}

func (m *MockAPI) RegenerateSummary(ctx context.Context, id string) (domain.Summary, error) {
	m.record("regenerate")
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.RegenerateErr != nil {
		return domain.Summary{}, m.RegenerateErr
	}
	return m.summaries[id], nil
}

func (m *MockAPI) FetchStats(ctx context.Context) ([]domain.Stat, error) {
	m.record("stats")
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.StatsErr != nil {
		return nil, m.StatsErr
	}
	if m.StatsFromDocs {
		return []domain.Stat{{Label: "Total Documents", Value: fmt.Sprint(len(m.docs)), Icon: "description"}}, nil
	}
	return append([]domain.Stat(nil), m.stats...), nil
}

func (m *MockAPI) Verify(ctx context.Context, id, hash string) (bool, error) {
	m.record("verify")
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.docs {
		if d.ID == id {
			return strings.EqualFold(d.Hash, hash), nil
		}
	}
	return false, domain.NewOpError(domain.ErrVerify, "verify", 404, "", nil)
}

func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// MockOpener records opened targets
type MockOpener struct {
	mu     sync.Mutex
	Opened []string
	Err    error
}

func (o *MockOpener) Open(ctx context.Context, target string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.Opened = append(o.Opened, target)
	return nil
}
