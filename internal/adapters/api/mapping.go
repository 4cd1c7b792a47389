package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// documentAliases lists, per canonical field, the raw keys the backend has
// used for it over time. The first non-empty key wins.
var documentAliases = map[string][]string{
	"id":                 {"id", "_id", "doc_id", "docId", "documentId", "minioId"},
	"name":               {"name", "filename", "title", "file_name", "fileName", "originalName"},
	"size":               {"size", "file_size", "fileSize", "bytes"},
	"date":               {"date", "created_at", "createdAt", "uploaded_at", "uploadedAt", "timestamp"},
	"hash":               {"hash", "tx_hash", "txHash", "fileHash", "file_hash"},
	"aiStatus":           {"aiStatus", "ai_status"},
	"verificationStatus": {"verificationStatus", "verification_status", "verified"},
	"type":               {"type", "file_type", "fileType", "mime_type", "mimeType", "content_type"},
	"category":           {"category", "tag", "tags", "categories"},
	"summary":            {"summary", "description", "ai_summary"},
	"validity":           {"validity", "expiry_date", "expiryDate", "expires_at", "expiresAt", "valid_until"},
	"url":                {"url", "file_url", "fileUrl", "download_url", "downloadUrl", "preview_url", "previewUrl"},
}

var statAliases = map[string][]string{
	"label":  {"label", "title", "name"},
	"value":  {"value", "count", "total"},
	"change": {"change", "delta", "trend"},
	"icon":   {"icon"},
}

var summaryAliases = map[string][]string{
	"summary":  {"summary", "description"},
	"category": {"category", "tag", "tags"},
	"validity": {"validity", "expiry_date", "expiryDate"},
}

// listPayloadKeys are envelope fields that may hold a collection
var listPayloadKeys = []string{"data", "documents", "items", "results", "response", "stats"}

// recordPayloadKeys are envelope fields that may hold a single created record
var recordPayloadKeys = []string{"data", "meta", "document", "record"}

type record map[string]any

// lookup returns the first non-empty alias value rendered as a string
func (r record) lookup(aliases []string) string {
	for _, key := range aliases {
		if v, ok := r[key]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return domain.JoinTags(parts)
	default:
		return ""
	}
}

// mapDocument normalizes one raw record. Enumerations are coerced and every
// required field gets a default, so the result never has undefined state.
func mapDocument(raw record) domain.Document {
	get := func(field string) string { return raw.lookup(documentAliases[field]) }

	doc := domain.Document{
		ID:                 get("id"),
		Name:               get("name"),
		Size:               mapSize(raw),
		Date:               mapDate(raw),
		Hash:               get("hash"),
		AIStatus:           domain.ParseAIStatus(get("aiStatus")),
		VerificationStatus: mapVerification(get("verificationStatus")),
		Type:               domain.ParseDocType(get("type")),
		Category:           get("category"),
		Summary:            get("summary"),
		Validity:           get("validity"),
		URL:                get("url"),
	}

	if doc.ID == "" {
		doc.ID = placeholderID(get("name"), get("date"), get("size"), get("hash"))
		slog.Warn("document_without_id", "name", doc.Name, "placeholder", doc.ID)
	}
	if doc.Name == "" {
		doc.Name = "Untitled"
	}
	if doc.Hash == "" {
		doc.Hash = domain.HashPending
	}
	if doc.Category == "" {
		doc.Category = domain.DefaultCategory
	}
	if get("type") == "" {
		if i := strings.LastIndex(doc.Name, "."); i > 0 {
			doc.Type = domain.ParseDocType(doc.Name[i+1:])
		}
	}
	return doc
}

// placeholderID derives a stable id from the record contents so a record the
// server sent without an id keeps the same id across refreshes
func placeholderID(fields ...string) string {
	key := strings.Join(fields, "\x00")
	return domain.LocalIDPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func mapVerification(v string) domain.VerificationStatus {
	// some backends send a boolean "verified" flag
	if v == "true" {
		return domain.Verified
	}
	return domain.ParseVerificationStatus(v)
}

// mapSize keeps preformatted sizes and renders raw byte counts
func mapSize(raw record) string {
	for _, key := range documentAliases["size"] {
		switch v := raw[key].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return domain.FormatSize(n)
			}
		case float64:
			return domain.FormatSize(int64(v))
		case string:
			if s := strings.TrimSpace(v); s != "" {
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					return domain.FormatSize(n)
				}
				return s
			}
		}
	}
	return "0 KB"
}

// mapDate keeps date strings, renders unix timestamps and defaults to today
func mapDate(raw record) string {
	for _, key := range documentAliases["date"] {
		switch v := raw[key].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil && n > 0 {
				return time.Unix(n, 0).Format(time.DateOnly)
			}
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).Format(time.DateOnly)
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return time.Now().Format(time.DateOnly)
}

func mapStat(raw record) domain.Stat {
	return domain.Stat{
		Label:  raw.lookup(statAliases["label"]),
		Value:  raw.lookup(statAliases["value"]),
		Change: raw.lookup(statAliases["change"]),
		Icon:   raw.lookup(statAliases["icon"]),
	}
}

func mapSummary(raw record) domain.Summary {
	return domain.Summary{
		Summary:  raw.lookup(summaryAliases["summary"]),
		Category: raw.lookup(summaryAliases["category"]),
		Validity: raw.lookup(summaryAliases["validity"]),
	}
}

// unwrapList accepts a bare array or an envelope holding one. An envelope
// without a payload is an empty collection.
func unwrapList(payload any) ([]any, error) {
	return unwrapListDepth(payload, 0)
}

func unwrapListDepth(payload any, depth int) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case nil:
		return nil, nil
	case map[string]any:
		if depth > 1 {
			break
		}
		for _, key := range listPayloadKeys {
			inner, ok := v[key]
			if !ok || inner == nil {
				continue
			}
			return unwrapListDepth(inner, depth+1)
		}
		if depth == 0 {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected an array, got %T", payload)
}

// unwrapRecord returns the created record of an upload-style response. Fields
// of the inner record win over envelope fields ("meta" plus top-level "txHash").
func unwrapRecord(payload any) (record, error) {
	outer, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", payload)
	}

	merged := record{}
	for k, v := range outer {
		merged[k] = v
	}
	for _, key := range recordPayloadKeys {
		inner, ok := outer[key].(map[string]any)
		if !ok {
			continue
		}
		for _, k := range recordPayloadKeys {
			delete(merged, k)
		}
		for k, v := range inner {
			if s := stringify(v); s != "" || merged[k] == nil {
				merged[k] = v
			}
		}
		break
	}
	return merged, nil
}

// mapRecords converts a list payload, skipping entries that are not objects
func mapRecords[T any](items []any, convert func(record) T) []T {
	out := make([]T, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			slog.Warn("skipping_non_object_record", "index", i, "type", fmt.Sprintf("%T", item))
			continue
		}
		out = append(out, convert(record(obj)))
	}
	return out
}
