package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
)

var _ ports.DocumentAPI = (*Client)(nil)

func documentPath(id string, suffix string) string {
	return "/documents/" + url.PathEscape(id) + suffix
}

// ListDocuments fetches and normalizes every document
func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	cl := call{op: "list documents", kind: domain.ErrFetch, method: http.MethodGet, path: "/documents", idempotent: true}

	var payload any
	if err := c.do(ctx, cl, &payload); err != nil {
		return nil, err
	}

	items, err := unwrapList(payload)
	if err != nil {
		return nil, domain.NewOpError(domain.ErrFormat, cl.op, http.StatusOK, "", err)
	}
	return mapRecords(items, mapDocument), nil
}

// UploadDocument sends the file as multipart form data. The boundary and the
// Content-Type header come from mime/multipart.
func (c *Client) UploadDocument(ctx context.Context, req ports.UploadRequest) (domain.Document, error) {
	const op = "upload"

	if req.Content == nil {
		return domain.Document{}, domain.NewOpError(domain.ErrUpload, op, 0, "No file selected", nil)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filepath.Base(req.Filename))
	if err != nil {
		return domain.Document{}, domain.NewOpError(domain.ErrUpload, op, 0, "", err)
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return domain.Document{}, domain.NewOpError(domain.ErrUpload, op, 0, "", fmt.Errorf("read %s: %w", req.Filename, err))
	}

	// backends disagree on the field name
	tags := strings.TrimSpace(req.Tags)
	for _, field := range []string{"tags", "tag"} {
		if err := form.WriteField(field, tags); err != nil {
			return domain.Document{}, domain.NewOpError(domain.ErrUpload, op, 0, "", err)
		}
	}
	if err := form.Close(); err != nil {
		return domain.Document{}, domain.NewOpError(domain.ErrUpload, op, 0, "", err)
	}

	cl := call{
		op:       op,
		kind:     domain.ErrUpload,
		method:   http.MethodPost,
		path:     "/upload",
		body:     buf.Bytes(),
		bodyType: form.FormDataContentType(),
	}

	var payload any
	if err := c.do(ctx, cl, &payload); err != nil {
		return domain.Document{}, err
	}

	rec, err := unwrapRecord(payload)
	if err != nil {
		return domain.Document{}, domain.NewOpError(domain.ErrFormat, op, http.StatusOK, "", err)
	}
	if rec.lookup(documentAliases["name"]) == "" {
		rec["name"] = filepath.Base(req.Filename)
	}
	return mapDocument(rec), nil
}

// DeleteDocument succeeds on any 2xx status; the body is ignored.
// A single attempt only: a retry after a lost 2xx would answer 404.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op:     "delete document",
		kind:   domain.ErrDelete,
		method: http.MethodDelete,
		path:   documentPath(id, ""),
	}, nil)
}

// PreviewURL resolves the viewable location of a document
func (c *Client) PreviewURL(ctx context.Context, id string) (string, error) {
	cl := call{op: "preview", kind: domain.ErrPreviewUnavailable, method: http.MethodGet, path: documentPath(id, "/preview"), idempotent: true}

	var payload any
	if err := c.do(ctx, cl, &payload); err != nil {
		return "", err
	}
	rec, err := unwrapRecord(payload)
	if err != nil {
		return "", domain.NewOpError(domain.ErrFormat, cl.op, http.StatusOK, "", err)
	}

	u := rec.lookup(documentAliases["url"])
	if u == "" {
		return "", domain.NewOpError(domain.ErrPreviewUnavailable, cl.op, http.StatusOK, "", nil)
	}
	return u, nil
}

// Chat posts {question} and returns the answer
func (c *Client) Chat(ctx context.Context, id, question string) (string, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return "", domain.NewOpError(domain.ErrChat, "chat", 0, "", err)
	}

	cl := call{op: "chat", kind: domain.ErrChat, method: http.MethodPost, path: documentPath(id, "/chat"), body: body, bodyType: "application/json"}

	var payload any
	if err := c.do(ctx, cl, &payload); err != nil {
		return "", err
	}
	rec, err := unwrapRecord(payload)
	if err != nil {
		return "", domain.NewOpError(domain.ErrFormat, cl.op, http.StatusOK, "", err)
	}
	return rec.lookup([]string{"answer", "response", "reply"}), nil
}

// RegenerateSummary posts with no body
func (c *Client) RegenerateSummary(ctx context.Context, id string) (domain.Summary, error) {
	cl := call{op: "regenerate summary", kind: domain.ErrRegenerate, method: http.MethodPost, path: documentPath(id, "/regenerate-summary")}

	var payload any
	if err := c.do(ctx, cl, &payload); err != nil {
		return domain.Summary{}, err
	}
	rec, err := unwrapRecord(payload)
	if err != nil {
		return domain.Summary{}, domain.NewOpError(domain.ErrFormat, cl.op, http.StatusOK, "", err)
	}
	return mapSummary(rec), nil
}

// FetchStats returns the server stat cards, possibly none
func (c *Client) FetchStats(ctx context.Context) ([]domain.Stat, error) {
	cl := call{op: "stats", kind: domain.ErrFetch, method: http.MethodGet, path: "/stats", idempotent: true}

	var payload any
	if err := c.do(ctx, cl, &payload); err != nil {
		return nil, err
	}
	items, err := unwrapList(payload)
	if err != nil {
		return nil, domain.NewOpError(domain.ErrFormat, cl.op, http.StatusOK, "", err)
	}
	return mapRecords(items, mapStat), nil
}

// Verify asks the backend to compare a SHA-256 digest with the stored hash
func (c *Client) Verify(ctx context.Context, id, hash string) (bool, error) {
	cl := call{
		op:         "verify",
		kind:       domain.ErrVerify,
		method:     http.MethodGet,
		path:       documentPath(id, "/verify") + "?hash=" + url.QueryEscape(hash),
		idempotent: true,
	}

	var resp struct {
		Match bool `json:"match"`
	}
	if err := c.do(ctx, cl, &resp); err != nil {
		return false, err
	}
	return resp.Match, nil
}
