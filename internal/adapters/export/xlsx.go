package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

const (
	documentsSheet   = "Documents"
	expirationsSheet = "Expirations"
	statsSheet       = "Stats"
)

var documentColumns = []struct {
	title string
	width float64
	value func(domain.Document) any
}{
	{"ID", 24, func(d domain.Document) any { return d.ID }},
	{"Name", 36, func(d domain.Document) any { return d.Name }},
	{"Type", 8, func(d domain.Document) any { return d.TypeLabel() }},
	{"Size", 10, func(d domain.Document) any { return d.Size }},
	{"Date", 12, func(d domain.Document) any { return d.Date }},
	{"Category", 20, func(d domain.Document) any { return d.Category }},
	{"Verification", 12, func(d domain.Document) any { return string(d.VerificationStatus) }},
	{"AI Status", 10, func(d domain.Document) any { return string(d.AIStatus) }},
	{"Validity", 20, func(d domain.Document) any { return d.Validity }},
	{"Hash", 68, func(d domain.Document) any { return d.Hash }},
	{"Summary", 60, func(d domain.Document) any { return d.Summary }},
}

// WriteXLSX writes a workbook with the document table, the expiration tracker
// and the stat cards on separate sheets.
func WriteXLSX(w io.Writer, snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"3B82F6"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", documentsSheet); err != nil {
		return err
	}
	if err := writeDocuments(f, header, snap.Documents); err != nil {
		return err
	}
	if err := writeExpirations(f, header, snap.Tracked()); err != nil {
		return err
	}
	if err := writeStats(f, header, domain.EffectiveStats(snap.Stats, snap.Documents)); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeDocuments(f *excelize.File, header int, docs []domain.Document) error {
	titles := make([]any, len(documentColumns))
	for i, col := range documentColumns {
		titles[i] = col.title
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(documentsSheet, name, name, col.width); err != nil {
			return err
		}
	}
	if err := writeRow(f, documentsSheet, 1, titles); err != nil {
		return err
	}
	if err := styleHeader(f, documentsSheet, header, len(titles)); err != nil {
		return err
	}

	for r, d := range docs {
		row := make([]any, len(documentColumns))
		for i, col := range documentColumns {
			row[i] = col.value(d)
		}
		if err := writeRow(f, documentsSheet, r+2, row); err != nil {
			return err
		}
	}

	if len(docs) > 0 {
		last, err := excelize.CoordinatesToCellName(len(documentColumns), len(docs)+1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(documentsSheet, "A1:"+last, nil); err != nil {
			return err
		}
	}
	return nil
}

func writeExpirations(f *excelize.File, header int, tracked []domain.TrackedDocument) error {
	if _, err := f.NewSheet(expirationsSheet); err != nil {
		return err
	}
	titles := []any{"Name", "Validity", "Days Remaining", "Status"}
	if err := writeRow(f, expirationsSheet, 1, titles); err != nil {
		return err
	}
	if err := styleHeader(f, expirationsSheet, header, len(titles)); err != nil {
		return err
	}
	if err := f.SetColWidth(expirationsSheet, "A", "B", 32); err != nil {
		return err
	}
	for i, t := range tracked {
		row := []any{t.Document.Name, t.Document.Validity, t.DaysRemaining, t.Bucket.Label()}
		if err := writeRow(f, expirationsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeStats(f *excelize.File, header int, stats []domain.Stat) error {
	if _, err := f.NewSheet(statsSheet); err != nil {
		return err
	}
	if err := writeRow(f, statsSheet, 1, []any{"Metric", "Value", "Change"}); err != nil {
		return err
	}
	if err := styleHeader(f, statsSheet, header, 3); err != nil {
		return err
	}
	for i, s := range stats {
		if err := writeRow(f, statsSheet, i+2, []any{s.Label, s.Value, s.Change}); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleHeader(f *excelize.File, sheet string, style, cols int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}
