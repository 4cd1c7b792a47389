package tagging

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
)

var _ ports.TagSuggester = (*Suggester)(nil)

// baseTags are attached to every upload before analysis
var baseTags = []string{"Document", "Pending"}

type rule struct {
	keywords []string
	tags     []string
}

// rules map keywords found in the file name or text to tags
var rules = []rule{
	{keywords: []string{"invoice", "receipt", "bill", "factura"}, tags: []string{"Finance"}},
	{keywords: []string{"contract", "agreement", "legal", "contrato"}, tags: []string{"Legal"}},
	{keywords: []string{"report", "audit"}, tags: []string{"Report"}},
	{keywords: []string{"passport", "identity", "license", "pasaporte"}, tags: []string{"Identity"}},
	{keywords: []string{"certificate", "diploma", "certificado"}, tags: []string{"Certificate"}},
}

// Suggester proposes upload tags from the file name and, for PDFs, the text
// of the first pages.
type Suggester struct {
	Pages int
}

func NewSuggester() *Suggester {
	return &Suggester{Pages: 2}
}

// Suggest returns the base tags followed by detected ones, without duplicates
func (s *Suggester) Suggest(path string) []string {
	tags := append([]string(nil), baseTags...)
	tags = appendMatches(tags, strings.ToLower(filepath.Base(path)))

	if domain.ParseDocType(filepath.Ext(path)) == domain.TypePDF {
		text, err := s.pdfText(path)
		if err != nil {
			slog.Debug("pdf_text_unavailable", "path", path, "error", err)
		} else {
			tags = appendMatches(tags, strings.ToLower(text))
		}
	}
	return tags
}

// SuggestString is Suggest joined for a tag input field
func (s *Suggester) SuggestString(path string) string {
	return domain.JoinTags(s.Suggest(path))
}

func appendMatches(tags []string, text string) []string {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				tags = appendUnique(tags, r.tags...)
				break
			}
		}
	}
	return tags
}

func appendUnique(tags []string, add ...string) []string {
	for _, a := range add {
		found := false
		for _, t := range tags {
			if strings.EqualFold(t, a) {
				found = true
				break
			}
		}
		if !found {
			tags = append(tags, a)
		}
	}
	return tags
}

// pdfText reads the plain text of the first pages. The parser panics on some
// malformed files, which is turned into an error.
func (s *Suggester) pdfText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := s.Pages
	if pages <= 0 || pages > reader.NumPage() {
		pages = reader.NumPage()
	}

	var buf bytes.Buffer
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(content)
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}
