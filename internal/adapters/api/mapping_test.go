package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

func decodeRecord(t *testing.T, raw string) record {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return record(m)
}

func TestMapDocument_Defaults(t *testing.T) {
	doc := mapDocument(decodeRecord(t, `{"id":"1"}`))

	assert.Equal(t, "Untitled", doc.Name)
	assert.Equal(t, "0 KB", doc.Size)
	assert.Equal(t, time.Now().Format(time.DateOnly), doc.Date)
	assert.Equal(t, domain.HashPending, doc.Hash)
	assert.Equal(t, domain.AIQueued, doc.AIStatus)
	assert.Equal(t, domain.Mining, doc.VerificationStatus)
	assert.Equal(t, domain.TypeDoc, doc.Type)
	assert.Equal(t, domain.DefaultCategory, doc.Category)
	assert.False(t, doc.HasSummary())
	assert.False(t, doc.HasValidity())
	assert.False(t, doc.HasURL())
}

func TestMapDocument_Aliases(t *testing.T) {
	doc := mapDocument(decodeRecord(t, `{
		"doc_id": 42,
		"title": "Lease",
		"file_size": 2516582,
		"created_at": "2024-02-02",
		"tx_hash": "0xdef",
		"ai_status": "processed",
		"verification_status": "VERIFIED",
		"file_type": "application/pdf",
		"tags": ["Legal", "Housing"],
		"description": "Rental agreement",
		"expiry_date": "2025-02-01",
		"download_url": "https://files/42"
	}`))

	assert.Equal(t, domain.Document{
		ID: "42", Name: "Lease", Size: "2.4 MB", Date: "2024-02-02", Hash: "0xdef",
		AIStatus: domain.AIProcessed, VerificationStatus: domain.Verified, Type: domain.TypePDF,
		Category: "Legal, Housing", Summary: "Rental agreement", Validity: "2025-02-01", URL: "https://files/42",
	}, doc)
}

func TestMapDocument_PrimaryKeyWins(t *testing.T) {
	doc := mapDocument(decodeRecord(t, `{"id":"1","name":"primary","filename":"secondary","hash":"","fileHash":"0xfile"}`))
	assert.Equal(t, "primary", doc.Name)
	assert.Equal(t, "0xfile", doc.Hash, "empty values fall through to the next alias")
}

func TestMapDocument_UnknownEnumsCoerce(t *testing.T) {
	doc := mapDocument(decodeRecord(t, `{"id":"1","aiStatus":"thinking","verificationStatus":"pending","type":"hologram"}`))
	assert.Equal(t, domain.AIQueued, doc.AIStatus)
	assert.Equal(t, domain.Mining, doc.VerificationStatus)
	assert.Equal(t, domain.TypeDoc, doc.Type)
}

func TestMapDocument_BooleanVerified(t *testing.T) {
	doc := mapDocument(decodeRecord(t, `{"id":"1","verified":true}`))
	assert.Equal(t, domain.Verified, doc.VerificationStatus)
}

func TestMapDocument_UnixTimestamp(t *testing.T) {
	doc := mapDocument(decodeRecord(t, `{"id":"1","timestamp":1700000000}`))
	assert.Equal(t, time.Unix(1700000000, 0).Format(time.DateOnly), doc.Date)
}

func TestMapDocument_MissingIDGetsStablePlaceholder(t *testing.T) {
	a := mapDocument(decodeRecord(t, `{"name":"a.pdf","date":"Jan 02, 2006"}`))
	again := mapDocument(decodeRecord(t, `{"name":"a.pdf","date":"Jan 02, 2006"}`))
	other := mapDocument(decodeRecord(t, `{"name":"b.pdf","date":"Jan 02, 2006"}`))

	assert.True(t, strings.HasPrefix(a.ID, domain.LocalIDPrefix))
	assert.True(t, a.IsLocal())
	assert.Equal(t, a.ID, again.ID, "same record must keep its id across refreshes")
	assert.NotEqual(t, a.ID, other.ID)
}

func TestUnwrapRecord_InnerWins(t *testing.T) {
	rec, err := unwrapRecord(map[string]any{
		"filename": "outer.pdf",
		"txHash":   "0xtx",
		"data":     map[string]any{"name": "inner.pdf", "id": "3", "hash": ""},
	})
	require.NoError(t, err)

	doc := mapDocument(rec)
	assert.Equal(t, "3", doc.ID)
	assert.Equal(t, "inner.pdf", doc.Name)
	assert.Equal(t, "0xtx", doc.Hash)
}

func TestUnwrapRecord_NotAnObject(t *testing.T) {
	_, err := unwrapRecord([]any{})
	assert.Error(t, err)
}

func TestMapRecordsSkipsNonObjects(t *testing.T) {
	docs := mapRecords([]any{map[string]any{"id": "1"}, "junk", 3.0}, mapDocument)
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].ID)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "x", stringify("  x "))
	assert.Equal(t, "12", stringify(12.0))
	assert.Equal(t, "1.5", stringify(1.5))
	assert.Equal(t, "7", stringify(json.Number("7")))
	assert.Equal(t, "a, b", stringify([]any{"a", "", "b"}))
	assert.Equal(t, "", stringify(map[string]any{}))
}
