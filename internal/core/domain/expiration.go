package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// nonExpiringSentinels mark validity strings that describe documents without an
// expiry date. Matched case-insensitively as substrings.
var nonExpiringSentinels = []string{
	"n/a",
	"not applicable",
	"indefinite",
	"no expiration",
	"does not expire",
	"never",
	"permanent",
	"indefinido",
	"no aplica",
	"vigente",
}

// validityPrefix strips wording around the date itself ("Expires on Dec 31, 2024")
var validityPrefix = regexp.MustCompile(`(?i)^\s*(expires?\s+on|expires?|expiry(\s+date)?\s*:?|valid\s+(until|through|thru)|until|vence\s+el|v[aá]lido\s+hasta)\s+`)

// ExpirationBucket is the per-row badge of the expiration tracker
type ExpirationBucket int

const (
	BucketValid ExpirationBucket = iota
	BucketExpiringSoon
	BucketExpired
)

// Label returns the badge text
func (b ExpirationBucket) Label() string {
	switch b {
	case BucketExpired:
		return "Expired"
	case BucketExpiringSoon:
		return "Expiring Soon"
	default:
		return "Valid"
	}
}

func (b ExpirationBucket) String() string {
	return b.Label()
}

// Thresholds configures the expiration policy
type Thresholds struct {
	// ExpiringSoonDays is the inclusive upper bound of the Expiring Soon badge
	ExpiringSoonDays int
	// ActionRequiredDays is the inclusive window of the dashboard "action required" count
	ActionRequiredDays int
}

// DefaultThresholds returns the 30/90 day policy
func DefaultThresholds() Thresholds {
	return Thresholds{ExpiringSoonDays: 30, ActionRequiredDays: 90}
}

// Bucket classifies a number of remaining days. Expired wins over Expiring Soon.
func (t Thresholds) Bucket(daysRemaining int) ExpirationBucket {
	switch {
	case daysRemaining < 0:
		return BucketExpired
	case daysRemaining <= t.ExpiringSoonDays:
		return BucketExpiringSoon
	default:
		return BucketValid
	}
}

// BucketFor classifies with the default thresholds
func BucketFor(daysRemaining int) ExpirationBucket {
	return DefaultThresholds().Bucket(daysRemaining)
}

// Classify returns the days remaining until the validity date relative to today.
// ok is false when the document is not trackable.
func Classify(validity string) (days int, ok bool) {
	return ClassifyAt(validity, time.Now())
}

// ClassifyAt is Classify with an explicit "now". Only calendar days count: both
// dates are truncated to midnight before subtracting.
func ClassifyAt(validity string, now time.Time) (days int, ok bool) {
	s := strings.TrimSpace(validity)
	if s == "" {
		return 0, false
	}

	lower := strings.ToLower(s)
	for _, sentinel := range nonExpiringSentinels {
		if strings.Contains(lower, sentinel) {
			return 0, false
		}
	}

	expiry, err := parseValidityDate(s, now.Location())
	if err != nil {
		return 0, false
	}

	return calendarDaysBetween(now, expiry), true
}

func parseValidityDate(s string, loc *time.Location) (time.Time, error) {
	t, err := dateparse.ParseIn(s, loc)
	if err == nil {
		return t, nil
	}

	trimmed := validityPrefix.ReplaceAllString(s, "")
	if trimmed == s {
		return time.Time{}, err
	}
	return dateparse.ParseIn(strings.TrimSpace(trimmed), loc)
}

// calendarDaysBetween counts midnights from a to b. Dates are rebuilt in UTC so a
// DST transition never turns a day into 23 or 25 hours.
func calendarDaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// TrackedDocument is a document with a trackable expiration date
type TrackedDocument struct {
	Document      Document
	DaysRemaining int
	Bucket        ExpirationBucket
}

// RemainingLabel renders "12 days" or "3 days ago"
func (t TrackedDocument) RemainingLabel() string {
	return FormatDaysRemaining(t.DaysRemaining)
}

// FormatDaysRemaining renders a day count for the tracker
func FormatDaysRemaining(days int) string {
	if days < 0 {
		return pluralDays(-days) + " ago"
	}
	return pluralDays(days)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

// TrackExpirations returns the trackable documents sorted by urgency, most urgent
// first. Documents without a trackable date are left out entirely.
func TrackExpirations(docs []Document, now time.Time, th Thresholds) []TrackedDocument {
	tracked := make([]TrackedDocument, 0, len(docs))
	for _, d := range docs {
		days, ok := ClassifyAt(d.Validity, now)
		if !ok {
			continue
		}
		tracked = append(tracked, TrackedDocument{
			Document:      d,
			DaysRemaining: days,
			Bucket:        th.Bucket(days),
		})
	}

	sort.SliceStable(tracked, func(i, j int) bool {
		return tracked[i].DaysRemaining < tracked[j].DaysRemaining
	})
	return tracked
}

// ExpirationSummary aggregates the tracker for the analytics header
type ExpirationSummary struct {
	Tracked        int
	Expired        int
	ExpiringSoon   int
	ActionRequired int // 0..ActionRequiredDays, inclusive
	Processed      int
}

// SummarizeExpirations counts tracker buckets and the action-required window
func SummarizeExpirations(docs []Document, tracked []TrackedDocument, th Thresholds) ExpirationSummary {
	s := ExpirationSummary{Tracked: len(tracked)}
	for _, t := range tracked {
		switch t.Bucket {
		case BucketExpired:
			s.Expired++
		case BucketExpiringSoon:
			s.ExpiringSoon++
		}
		if t.DaysRemaining >= 0 && t.DaysRemaining <= th.ActionRequiredDays {
			s.ActionRequired++
		}
	}
	for _, d := range docs {
		if d.AIStatus == AIProcessed {
			s.Processed++
		}
	}
	return s
}

// ProcessedDocuments returns the stored AI insights: documents whose summary job finished
func ProcessedDocuments(docs []Document) []Document {
	var out []Document
	for _, d := range docs {
		if d.AIStatus == AIProcessed {
			out = append(out, d)
		}
	}
	return out
}
