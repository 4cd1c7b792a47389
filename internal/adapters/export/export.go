package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// Snapshot is the data handed to every exporter
type Snapshot struct {
	Documents   []domain.Document
	Stats       []domain.Stat
	Thresholds  domain.Thresholds
	GeneratedAt time.Time
}

// Tracked returns the expiration tracker rows of the snapshot
func (s Snapshot) Tracked() []domain.TrackedDocument {
	return domain.TrackExpirations(s.Documents, s.GeneratedAt, s.Thresholds)
}

// Format defines how a snapshot is written for one output type
type Format struct {
	Extension string
	Write     func(w io.Writer, snap Snapshot) error
}

// Registry of supported formats
var formats = map[string]Format{
	"json": {Extension: "json", Write: WriteJSON},
	"xlsx": {Extension: "xlsx", Write: WriteXLSX},
	"html": {Extension: "html", Write: WriteReport},
}

// Lookup returns the format registered under name
func Lookup(name string) (Format, error) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Format{}, fmt.Errorf("unsupported format: %s (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names lists the registered format names
func Names() []string {
	names := make([]string, 0, len(formats))
	for n := range formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FileName builds "cryptodoc-20240601-153000.xlsx"
func FileName(f Format, at time.Time) string {
	return fmt.Sprintf("cryptodoc-%s.%s", at.Format("20060102-150405"), f.Extension)
}

type jsonExport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Stats       []domain.Stat      `json:"stats"`
	Documents   []domain.Document  `json:"documents"`
	Expirations []jsonTrackedEntry `json:"expirations"`
}

type jsonTrackedEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Validity      string `json:"validity"`
	DaysRemaining int    `json:"daysRemaining"`
	Status        string `json:"status"`
}

// WriteJSON writes the snapshot as indented JSON in canonical field names
func WriteJSON(w io.Writer, snap Snapshot) error {
	out := jsonExport{
		GeneratedAt: snap.GeneratedAt,
		Stats:       domain.EffectiveStats(snap.Stats, snap.Documents),
		Documents:   snap.Documents,
		Expirations: []jsonTrackedEntry{},
	}
	if out.Documents == nil {
		out.Documents = []domain.Document{}
	}
	for _, t := range snap.Tracked() {
		out.Expirations = append(out.Expirations, jsonTrackedEntry{
			ID:            t.Document.ID,
			Name:          t.Document.Name,
			Validity:      t.Document.Validity,
			DaysRemaining: t.DaysRemaining,
			Status:        t.Bucket.Label(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
