package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
)

// Controller is the single source of truth for what the dashboard shows.
// Every screen and command reads from and mutates state through it.
//
// Responses apply in arrival order. Overlapping refreshes are not deduplicated
// and in-flight requests are not cancelled when the view changes.
type Controller struct {
	api    ports.DocumentAPI
	opener ports.FileOpener

	mu          sync.RWMutex
	documents   []domain.Document
	stats       []domain.Stat
	view        domain.View
	selectedID  string
	preview     *domain.Document
	inFlight    int
	lastErr     error
	refreshedAt time.Time
	thresholds  domain.Thresholds
	transcripts map[string][]ChatMessage
}

// NewController creates a controller on the dashboard view with empty state.
// opener may be nil, in which case previews are only resolved.
func NewController(api ports.DocumentAPI, opener ports.FileOpener) *Controller {
	return &Controller{
		api:         api,
		opener:      opener,
		view:        domain.ViewDashboard,
		thresholds:  domain.DefaultThresholds(),
		transcripts: make(map[string][]ChatMessage),
	}
}

// SetThresholds overrides the expiration policy
func (c *Controller) SetThresholds(th domain.Thresholds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = th
}

// Refresh fetches documents and stats concurrently and replaces both at once.
// On failure nothing is replaced and the error is kept as a retryable banner.
func (c *Controller) Refresh(ctx context.Context) error {
	c.begin()
	defer c.end()

	var (
		docs  []domain.Document
		stats []domain.Stat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = c.api.ListDocuments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = c.api.FetchStats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Warn("refresh_failed", "error", err)
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	docs = dedupeByID(docs)

	c.mu.Lock()
	c.documents = docs
	c.stats = stats
	c.lastErr = nil
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	slog.Debug("refresh_applied", "documents", len(docs), "server_stats", len(stats))
	return nil
}

// Delete asks confirm for a decision, then deletes the document remotely and
// locally. Stats are re-requested afterwards; a failure there does not undo
// the deletion and leaves the derived fallback in place.
func (c *Controller) Delete(ctx context.Context, id string, confirm ports.Confirmer) error {
	doc, ok := c.Document(id)
	if !ok {
		return fmt.Errorf("delete %s: %w", id, domain.ErrNotFound)
	}
	if err := requireRemote(doc, domain.ErrDelete, "delete document"); err != nil {
		return err
	}
	if confirm == nil {
		return fmt.Errorf("delete %s: no confirmation gate", id)
	}

	accepted, err := confirm.Confirm(ctx, doc)
	if err != nil {
		return fmt.Errorf("delete %s: %w", doc.Name, err)
	}
	if !accepted {
		return fmt.Errorf("delete %s: %w", doc.Name, domain.ErrCancelled)
	}

	c.begin()
	defer c.end()

	if err := c.api.DeleteDocument(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	c.documents = removeByID(c.documents, id)
	if c.selectedID == id {
		c.selectedID = ""
	}
	if c.preview != nil && c.preview.ID == id {
		c.preview = nil
	}
	delete(c.transcripts, id)
	c.mu.Unlock()

	slog.Info("document_deleted", "id", id, "name", doc.Name)
	c.reloadStats(ctx)
	return nil
}

// Upload submits a file and inserts the created document at the front of the
// collection, then switches to the dashboard. When the backend does not echo
// a category the submitted tags are used.
func (c *Controller) Upload(ctx context.Context, req ports.UploadRequest) (domain.Document, error) {
	c.begin()
	defer c.end()

	doc, err := c.api.UploadDocument(ctx, req)
	if err != nil {
		return domain.Document{}, err
	}

	if strings.TrimSpace(doc.Category) == "" || doc.Category == domain.DefaultCategory {
		if tags := domain.JoinTags(domain.SplitTags(req.Tags)); tags != "" {
			doc.Category = tags
		} else {
			doc.Category = domain.DefaultCategory
		}
	}

	c.mu.Lock()
	c.documents = append([]domain.Document{doc}, removeByID(c.documents, doc.ID)...)
	c.view = domain.ViewDashboard
	c.mu.Unlock()

	slog.Info("document_uploaded", "id", doc.ID, "name", doc.Name, "category", doc.Category)
	c.reloadStats(ctx)
	return doc, nil
}

// SelectForInsights selects a document and switches to the insights view
func (c *Controller) SelectForInsights(id string) (domain.Document, error) {
	doc, ok := c.Document(id)
	if !ok {
		return domain.Document{}, fmt.Errorf("select %s: %w", id, domain.ErrNotFound)
	}

	c.mu.Lock()
	c.selectedID = id
	c.view = domain.ViewInsights
	if _, started := c.transcripts[id]; !started {
		c.transcripts[id] = []ChatMessage{greeting(doc)}
	}
	c.mu.Unlock()
	return doc, nil
}

// ResolvePreview returns the inline URL of a document, or fetches it on first
// request and caches it on the local copy.
func (c *Controller) ResolvePreview(ctx context.Context, id string) (string, error) {
	doc, ok := c.Document(id)
	if !ok {
		return "", fmt.Errorf("preview %s: %w", id, domain.ErrNotFound)
	}
	if doc.HasURL() {
		return doc.URL, nil
	}
	if err := requireRemote(doc, domain.ErrPreviewUnavailable, "preview"); err != nil {
		return "", err
	}

	url, err := c.api.PreviewURL(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrPreviewUnavailable) {
			err = domain.NewOpError(domain.ErrPreviewUnavailable, "preview", 0, "", err)
		}
		return "", err
	}
	if strings.TrimSpace(url) == "" {
		return "", domain.NewOpError(domain.ErrPreviewUnavailable, "preview", 0, "", nil)
	}

	c.mu.Lock()
	for i := range c.documents {
		if c.documents[i].ID == id {
			c.documents[i].URL = url
		}
	}
	c.mu.Unlock()
	return url, nil
}

// RequestPreview resolves the preview location and opens it
func (c *Controller) RequestPreview(ctx context.Context, id string) (string, error) {
	url, err := c.ResolvePreview(ctx, id)
	if err != nil {
		return "", err
	}

	doc, _ := c.Document(id)
	c.mu.Lock()
	c.preview = &doc
	c.mu.Unlock()

	if c.opener != nil {
		if err := c.opener.Open(ctx, url); err != nil {
			return url, domain.NewOpError(domain.ErrPreviewUnavailable, "open preview", 0, "", err)
		}
	}
	return url, nil
}

// ClosePreview clears the previewed document
func (c *Controller) ClosePreview() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preview = nil
}

// RegenerateSummary reruns the summary job and applies the result locally
func (c *Controller) RegenerateSummary(ctx context.Context, id string) (domain.Document, error) {
	doc, ok := c.Document(id)
	if !ok {
		return domain.Document{}, fmt.Errorf("regenerate %s: %w", id, domain.ErrNotFound)
	}
	if err := requireRemote(doc, domain.ErrRegenerate, "regenerate summary"); err != nil {
		return domain.Document{}, err
	}

	c.begin()
	defer c.end()

	summary, err := c.api.RegenerateSummary(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}

	var updated domain.Document
	c.mu.Lock()
	for i := range c.documents {
		if c.documents[i].ID == id {
			c.documents[i] = summary.Apply(c.documents[i])
			updated = c.documents[i]
		}
	}
	c.mu.Unlock()

	if updated.ID == "" {
		return domain.Document{}, fmt.Errorf("regenerate %s: %w", id, domain.ErrNotFound)
	}
	return updated, nil
}

// Verify checks a SHA-256 digest against the stored hash
func (c *Controller) Verify(ctx context.Context, id, hash string) (bool, error) {
	if doc, ok := c.Document(id); ok {
		if err := requireRemote(doc, domain.ErrVerify, "verify"); err != nil {
			return false, err
		}
	}
	return c.api.Verify(ctx, id, strings.ToLower(strings.TrimSpace(hash)))
}

// SetView switches the active screen
func (c *Controller) SetView(v domain.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
}

// DismissError clears the banner
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

func (c *Controller) reloadStats(ctx context.Context) {
	stats, err := c.api.FetchStats(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Warn("stats_reload_failed", "error", err)
		c.stats = nil
		return
	}
	c.stats = stats
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

// --- Read side ---

// State is a consistent snapshot of the controller
type State struct {
	Documents   []domain.Document
	Stats       []domain.Stat
	ServerStats bool
	View        domain.View
	SelectedID  string
	Preview     *domain.Document
	Loading     bool
	Err         error
	RefreshedAt time.Time
}

// Snapshot copies the current state under a single read lock
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := append([]domain.Document(nil), c.documents...)
	s := State{
		Documents:   docs,
		Stats:       domain.EffectiveStats(c.stats, docs),
		ServerStats: len(c.stats) > 0,
		View:        c.view,
		SelectedID:  c.selectedID,
		Loading:     c.inFlight > 0,
		Err:         c.lastErr,
		RefreshedAt: c.refreshedAt,
	}
	if c.preview != nil {
		p := *c.preview
		s.Preview = &p
	}
	return s
}

// Documents returns a copy of the collection, most recent first
func (c *Controller) Documents() []domain.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Document(nil), c.documents...)
}

// Document looks a document up by id
func (c *Controller) Document(id string) (domain.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.documents {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Document{}, false
}

// Stats returns server stats when available, otherwise derived ones
func (c *Controller) Stats() []domain.Stat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.EffectiveStats(c.stats, c.documents)
}

// View returns the active screen
func (c *Controller) View() domain.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Selected returns the document chosen for insights
func (c *Controller) Selected() (domain.Document, bool) {
	c.mu.RLock()
	id := c.selectedID
	c.mu.RUnlock()
	if id == "" {
		return domain.Document{}, false
	}
	return c.Document(id)
}

// Preview returns the document being previewed, if any
func (c *Controller) Preview() (domain.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.preview == nil {
		return domain.Document{}, false
	}
	return *c.preview, true
}

// Loading reports whether any request started by the controller is in flight
func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inFlight > 0
}

// LastError returns the retryable banner error of the last failed refresh
func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Expirations returns the tracker rows, most urgent first
func (c *Controller) Expirations(now time.Time) []domain.TrackedDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.TrackExpirations(c.documents, now, c.thresholds)
}

// ExpirationSummary aggregates the tracker for the analytics header
func (c *Controller) ExpirationSummary(now time.Time) domain.ExpirationSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tracked := domain.TrackExpirations(c.documents, now, c.thresholds)
	return domain.SummarizeExpirations(c.documents, tracked, c.thresholds)
}

// Insights returns documents with a finished AI summary
func (c *Controller) Insights() []domain.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ProcessedDocuments(c.documents)
}

// requireRemote refuses server calls for documents that only have a placeholder id
func requireRemote(doc domain.Document, kind error, op string) error {
	if doc.IsLocal() {
		return domain.NewOpError(kind, op, 0, "This document has no server id yet. Refresh once the backend has stored it.", nil)
	}
	return nil
}

func dedupeByID(docs []domain.Document) []domain.Document {
	seen := make(map[string]bool, len(docs))
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out
}

func removeByID(docs []domain.Document, id string) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}
