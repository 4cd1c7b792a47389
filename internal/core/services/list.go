package services

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// ListRequest filters and orders a document collection
type ListRequest struct {
	TagFilter string // Filter by a category tag (optional)
	Query     string // Name or hash substring (optional)
	SortBy    string // "date" (default), "name", "status", "size"
	Reverse   bool
}

// ListResponse is the filtered collection
type ListResponse struct {
	Documents []domain.Document
	Total     int
}

// List returns the current documents filtered and sorted as requested.
// With no SortBy the collection keeps its most-recent-first order.
func (c *Controller) List(req ListRequest) *ListResponse {
	docs := c.Documents()

	if req.TagFilter != "" {
		docs = filterByTag(docs, req.TagFilter)
	}
	if strings.TrimSpace(req.Query) != "" {
		docs = SearchDocuments(docs, req.Query)
	}
	if req.SortBy != "" {
		sortDocuments(docs, req.SortBy, req.Reverse)
	} else if req.Reverse {
		for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
			docs[i], docs[j] = docs[j], docs[i]
		}
	}

	return &ListResponse{Documents: docs, Total: len(docs)}
}

func filterByTag(docs []domain.Document, tag string) []domain.Document {
	var filtered []domain.Document
	for _, d := range docs {
		if d.HasTag(tag) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func sortDocuments(docs []domain.Document, sortBy string, reverse bool) {
	switch sortBy {
	case "name", "status", "size":
	default:
		sortByDate(docs, reverse)
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if reverse {
			a, b = b, a
		}
		switch sortBy {
		case "name":
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case "status":
			if a.VerificationStatus != b.VerificationStatus {
				return a.IsVerified()
			}
			return statusRank(a.AIStatus) < statusRank(b.AIStatus)
		default:
			return parseSize(a.Size) < parseSize(b.Size)
		}
	})
}

// sortByDate orders newest first (oldest first when reversed). Documents whose
// date does not parse go last in their collection order.
func sortByDate(docs []domain.Document, reverse bool) {
	type dated struct {
		doc domain.Document
		at  time.Time
		ok  bool
	}

	items := make([]dated, len(docs))
	for i, d := range docs {
		at, ok := d.Time()
		items[i] = dated{doc: d, at: at, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		if reverse {
			return a.at.Before(b.at)
		}
		return a.at.After(b.at)
	})

	for i := range items {
		docs[i] = items[i].doc
	}
}

func statusRank(s domain.AIStatus) int {
	switch s {
	case domain.AIFailed:
		return 0
	case domain.AIQueued:
		return 1
	default:
		return 2
	}
}

// parseSize turns "2.4 MB" into bytes for ordering; unknown sizes sort first
func parseSize(s string) float64 {
	fields := strings.Fields(strings.ToUpper(s))
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}

	unit := "B"
	if len(fields) > 1 {
		unit = fields[1]
	}
	switch unit {
	case "KB":
		n *= 1 << 10
	case "MB":
		n *= 1 << 20
	case "GB":
		n *= 1 << 30
	}
	return n
}

// fuzzyMatch represents a scored match
type fuzzyMatch struct {
	doc   domain.Document
	score int
}

// SearchDocuments keeps documents whose name or hash contains the query and
// orders them by how well the name matches.
func SearchDocuments(docs []domain.Document, query string) []domain.Document {
	query = strings.TrimSpace(query)
	if query == "" {
		return docs
	}

	var matches []fuzzyMatch
	for i, d := range docs {
		if !d.Matches(query) {
			continue
		}
		score := fuzzyMatchScore(d.Name, query)
		if score == 0 {
			score = fuzzyMatchScore(d.Hash, query) / 2
		}
		// keep the collection order among equal scores
		matches = append(matches, fuzzyMatch{doc: d, score: score*len(docs) + (len(docs) - i)})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]domain.Document, len(matches))
	for i, m := range matches {
		result[i] = m.doc
	}
	return result
}

// fuzzyMatchScore calculates a score for fuzzy matching query against text
// Returns 0 if no match, higher scores for better matches
func fuzzyMatchScore(text, query string) int {
	if text == "" || query == "" {
		return 0
	}

	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(query)

	if text == query {
		return 10000
	}
	if textLower == queryLower {
		return 9000
	}

	if strings.Contains(textLower, queryLower) {
		score := 5000
		if strings.HasPrefix(textLower, queryLower) {
			score += 2000
		}
		return score
	}

	// Character-by-character matching, used by the pickers
	score := 0
	textRunes := []rune(textLower)
	queryRunes := []rune(queryLower)

	queryIdx := 0
	consecutive := 0
	lastMatchIdx := -1

	for textIdx := 0; textIdx < len(textRunes) && queryIdx < len(queryRunes); textIdx++ {
		if textRunes[textIdx] != queryRunes[queryIdx] {
			continue
		}
		score += 100
		if textIdx == lastMatchIdx+1 {
			consecutive++
			score += consecutive * 50
		} else {
			consecutive = 0
		}
		if textIdx == 0 || isWordBoundary(textRunes[textIdx-1]) {
			score += 200
		}
		lastMatchIdx = textIdx
		queryIdx++
	}

	if queryIdx != len(queryRunes) {
		return 0
	}
	return score - (lastMatchIdx+1-len(queryRunes))*10
}

func isWordBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.'
}

// Resolve finds the document a user meant by query: an exact id, an exact
// name, or the single search hit. Ambiguous queries return all candidates.
func Resolve(docs []domain.Document, query string) (domain.Document, []domain.Document, bool) {
	q := strings.TrimSpace(query)
	for _, d := range docs {
		if d.ID == q {
			return d, nil, true
		}
	}
	for _, d := range docs {
		if strings.EqualFold(d.Name, q) {
			return d, nil, true
		}
	}

	hits := SearchDocuments(docs, q)
	if len(hits) == 1 {
		return hits[0], nil, true
	}
	return domain.Document{}, hits, false
}
