package tagging

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSuggestFromFilename(t *testing.T) {
	s := NewSuggester()

	tests := []struct {
		path string
		want []string
	}{
		{"/tmp/notes.txt", []string{"Document", "Pending"}},
		{"/tmp/Invoice-2024.docx", []string{"Document", "Pending", "Finance"}},
		{"contract.txt", []string{"Document", "Pending", "Legal"}},
		{"invoice_for_contract.txt", []string{"Document", "Pending", "Finance", "Legal"}},
		{"passport-scan.png", []string{"Document", "Pending", "Identity"}},
	}

	for _, tt := range tests {
		if got := s.Suggest(tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Suggest(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSuggestMalformedPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.pdf")
	if err := os.WriteFile(path, []byte("not really a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	got := NewSuggester().Suggest(path)
	want := []string{"Document", "Pending", "Report"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest = %v, want %v", got, want)
	}
}

func TestSuggestString(t *testing.T) {
	if got := NewSuggester().SuggestString("bill.txt"); got != "Document, Pending, Finance" {
		t.Errorf("SuggestString = %q", got)
	}
}

func TestAppendUnique(t *testing.T) {
	got := appendUnique([]string{"Finance"}, "finance", "Legal")
	if !reflect.DeepEqual(got, []string{"Finance", "Legal"}) {
		t.Errorf("appendUnique = %v", got)
	}
}
