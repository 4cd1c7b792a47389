package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// AIStatus is the lifecycle of the summarization job for a document
type AIStatus string

const (
	AIProcessed AIStatus = "Processed"
	AIQueued    AIStatus = "Queued"
	AIFailed    AIStatus = "Failed"
)

// VerificationStatus tracks the hash/timestamp commitment of a document
type VerificationStatus string

const (
	// Verified means the commitment is confirmed
	Verified VerificationStatus = "Verified"
	// Mining means the commitment is still in progress
	Mining VerificationStatus = "Mining"
)

// DocType drives icon and preview renderer choice
type DocType string

const (
	TypePDF   DocType = "pdf"
	TypeDoc   DocType = "doc"
	TypeImage DocType = "image"
	TypeSheet DocType = "sheet"
)

// HashPending is shown while a document hash is not yet confirmed
const HashPending = "Pending..."

// DefaultCategory is used when neither the server nor the uploader supplied one
const DefaultCategory = "Uncategorized"

// LocalIDPrefix marks placeholder ids given to records the server sent without one.
// Such documents are listed but cannot be addressed on the server.
const LocalIDPrefix = "local-"

// Document is the normalized, UI-facing representation of a document record.
// Summary, Validity and URL are optional; the empty string means absent.
type Document struct {
	ID                 string             `json:"id" yaml:"id"`
	Name               string             `json:"name" yaml:"name"`
	Size               string             `json:"size" yaml:"size"`
	Date               string             `json:"date" yaml:"date"`
	Hash               string             `json:"hash" yaml:"hash"`
	AIStatus           AIStatus           `json:"aiStatus" yaml:"ai_status"`
	VerificationStatus VerificationStatus `json:"verificationStatus" yaml:"verification_status"`
	Type               DocType            `json:"type" yaml:"type"`
	Category           string             `json:"category" yaml:"category"`
	Summary            string             `json:"summary,omitempty" yaml:"summary,omitempty"`
	Validity           string             `json:"validity,omitempty" yaml:"validity,omitempty"`
	URL                string             `json:"url,omitempty" yaml:"url,omitempty"`
}

// ParseAIStatus coerces any server value to a defined AIStatus (Queued when unknown)
func ParseAIStatus(s string) AIStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "processed":
		return AIProcessed
	case "failed":
		return AIFailed
	default:
		return AIQueued
	}
}

// ParseVerificationStatus coerces any server value to a defined status (Mining when unknown)
func ParseVerificationStatus(s string) VerificationStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(Verified)) {
		return Verified
	}
	return Mining
}

// ParseDocType coerces any server value to a defined type (doc when unknown).
// Common extensions and MIME types are accepted as well.
func ParseDocType(s string) DocType {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, ".")

	switch v {
	case "pdf", "application/pdf":
		return TypePDF
	case "image", "png", "jpg", "jpeg", "gif", "webp", "svg":
		return TypeImage
	case "sheet", "xlsx", "xls", "csv", "ods":
		return TypeSheet
	case "doc", "docx", "txt", "odt", "rtf", "md":
		return TypeDoc
	}

	switch {
	case strings.HasPrefix(v, "image/"):
		return TypeImage
	case strings.Contains(v, "spreadsheet"), strings.Contains(v, "excel"), v == "text/csv":
		return TypeSheet
	}
	return TypeDoc
}

// FormatSize renders a byte count the way the backend does ("2.4 MB")
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// HasSummary reports whether an AI summary has been generated
func (d Document) HasSummary() bool {
	return strings.TrimSpace(d.Summary) != ""
}

// HasValidity reports whether the document carries an expiry description
func (d Document) HasValidity() bool {
	return strings.TrimSpace(d.Validity) != ""
}

// HasURL reports whether a preview location is already known
func (d Document) HasURL() bool {
	return strings.TrimSpace(d.URL) != ""
}

// IsVerified reports whether the hash commitment is confirmed
func (d Document) IsVerified() bool {
	return d.VerificationStatus == Verified
}

// TypeLabel returns the upper-cased type for display ("PDF", "SHEET")
func (d Document) TypeLabel() string {
	return strings.ToUpper(string(d.Type))
}

// IsLocal reports whether the document only has a placeholder id
func (d Document) IsLocal() bool {
	return d.ID == "" || strings.HasPrefix(d.ID, LocalIDPrefix)
}

// Time parses the display date ("2024-03-01", "Jan 02, 2006", ...) in local time
func (d Document) Time() (time.Time, bool) {
	s := strings.TrimSpace(d.Date)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ShortHash truncates long hashes for table display
func (d Document) ShortHash(n int) string {
	if n <= 3 || len(d.Hash) <= n {
		return d.Hash
	}
	return d.Hash[:n-3] + "..."
}

// Matches reports whether the query is a case-insensitive substring of the name or hash
func (d Document) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.Hash), q)
}

// HasTag checks whether the comma-separated category contains the tag
func (d Document) HasTag(tag string) bool {
	for _, t := range SplitTags(d.Category) {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SplitTags splits "Finance, Legal" into ["Finance", "Legal"], dropping blanks
func SplitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// JoinTags is the inverse of SplitTags
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// Stat is a single presentational metric card
type Stat struct {
	Label  string `json:"label" yaml:"label"`
	Value  string `json:"value" yaml:"value"`
	Change string `json:"change" yaml:"change"`
	Icon   string `json:"icon" yaml:"icon"`
}

// Summary is the result of regenerating the AI summary of a document
type Summary struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
	Validity string `json:"validity"`
}

// Apply copies the regenerated fields onto the document and marks it processed.
// Empty category or validity from the server keep the previous values.
func (s Summary) Apply(doc Document) Document {
	doc.Summary = s.Summary
	if strings.TrimSpace(s.Category) != "" {
		doc.Category = s.Category
	}
	if strings.TrimSpace(s.Validity) != "" {
		doc.Validity = s.Validity
	}
	doc.AIStatus = AIProcessed
	return doc
}
