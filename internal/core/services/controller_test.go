package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports/mocks"
)

func seedDocs() []domain.Document {
	return []domain.Document{
		{ID: "1", Name: "invoice-march.pdf", Hash: "0xaaa", VerificationStatus: domain.Verified, AIStatus: domain.AIProcessed, Type: domain.TypePDF, Date: "2024-03-01"},
		{ID: "2", Name: "lease-contract.docx", Hash: "0xbbb", VerificationStatus: domain.Mining, AIStatus: domain.AIQueued, Type: domain.TypeDoc, Date: "2024-02-01"},
		{ID: "3", Name: "passport.png", Hash: "0xccc", VerificationStatus: domain.Verified, AIStatus: domain.AIFailed, Type: domain.TypeImage, Date: "2024-01-01"},
	}
}

func newTestController(t *testing.T, docs ...domain.Document) (*Controller, *mocks.MockAPI) {
	t.Helper()
	api := mocks.NewMockAPI(docs...)
	ctrl := NewController(api, nil)
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}
	return ctrl, api
}

func yes() ports.Confirmer {
	return ports.ConfirmFunc(func(context.Context, domain.Document) (bool, error) { return true, nil })
}

func no() ports.Confirmer {
	return ports.ConfirmFunc(func(context.Context, domain.Document) (bool, error) { return false, nil })
}

func TestController_InitialState(t *testing.T) {
	ctrl := NewController(mocks.NewMockAPI(), nil)
	if ctrl.View() != domain.ViewDashboard {
		t.Errorf("initial view = %q", ctrl.View())
	}
	if len(ctrl.Documents()) != 0 || ctrl.Loading() || ctrl.LastError() != nil {
		t.Error("expected empty idle state")
	}
}

func TestController_Refresh(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)

	if got := len(ctrl.Documents()); got != 3 {
		t.Fatalf("documents = %d, want 3", got)
	}
	if api.CallCount("list") != 1 || api.CallCount("stats") != 1 {
		t.Errorf("expected one list and one stats call, got %v", api.Calls)
	}

	// no server stats: derived fallback
	stats := ctrl.Stats()
	if stats[0].Value != "3" || stats[1].Value != "67%" {
		t.Errorf("derived stats = %+v", stats)
	}
}

func TestController_RefreshUsesServerStatsVerbatim(t *testing.T) {
	api := mocks.NewMockAPI(seedDocs()...)
	server := []domain.Stat{{Label: "Storage", Value: "1.2 GB", Change: "+4%", Icon: "cloud"}}
	api.SetStats(server)

	ctrl := NewController(api, nil)
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	stats := ctrl.Stats()
	if len(stats) != 1 || stats[0] != server[0] {
		t.Errorf("stats = %+v, want server stats only", stats)
	}
	if !ctrl.Snapshot().ServerStats {
		t.Error("snapshot should report server stats")
	}
}

func TestController_RefreshFailureKeepsState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mocks.MockAPI)
	}{
		{"documents fail", func(api *mocks.MockAPI) { api.ListErr = domain.NewOpError(domain.ErrFetch, "list documents", 500, "", nil) }},
		{"stats fail", func(api *mocks.MockAPI) { api.StatsErr = domain.NewOpError(domain.ErrFormat, "stats", 200, "", nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, api := newTestController(t, seedDocs()...)
			before := ctrl.Snapshot()

			tt.setup(api)
			err := ctrl.Refresh(context.Background())
			if err == nil {
				t.Fatal("expected refresh error")
			}

			after := ctrl.Snapshot()
			if len(after.Documents) != len(before.Documents) {
				t.Errorf("documents changed on failure: %d -> %d", len(before.Documents), len(after.Documents))
			}
			if after.Err == nil {
				t.Error("expected a retryable error banner")
			}
			if after.Loading {
				t.Error("loading should be cleared after failure")
			}

			ctrl.DismissError()
			if ctrl.LastError() != nil {
				t.Error("DismissError did not clear the banner")
			}
		})
	}
}

func TestController_RefreshClearsErrorOnSuccess(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	api.ListErr = errors.New("offline")
	_ = ctrl.Refresh(context.Background())

	api.ListErr = nil
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ctrl.LastError() != nil {
		t.Error("successful refresh should clear the banner")
	}
}

func TestController_RefreshDedupesIDs(t *testing.T) {
	docs := append(seedDocs(), domain.Document{ID: "1", Name: "duplicate"})
	ctrl, _ := newTestController(t, docs...)

	if got := len(ctrl.Documents()); got != 3 {
		t.Errorf("documents = %d, want 3", got)
	}
}

func TestController_Delete(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	api.StatsFromDocs = true

	if _, err := ctrl.SelectForInsights("2"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Delete(context.Background(), "2", yes()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok := ctrl.Document("2"); ok {
		t.Error("document still present after delete")
	}
	if _, ok := ctrl.Selected(); ok {
		t.Error("deleted document should no longer be selected")
	}
	if got := ctrl.Stats()[0].Value; got != "2" {
		t.Errorf("stats total = %q, want 2", got)
	}
	if api.CallCount("list") != 1 {
		t.Errorf("delete must not re-fetch documents, list calls = %d", api.CallCount("list"))
	}
	if api.CallCount("stats") != 2 {
		t.Errorf("delete should re-request stats, stats calls = %d", api.CallCount("stats"))
	}
}

func TestController_DeleteStatsFailureKeepsDeletion(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	api.SetStats([]domain.Stat{{Label: "Total Documents", Value: "3"}})
	_ = ctrl.Refresh(context.Background())

	api.StatsErr = errors.New("stats down")
	if err := ctrl.Delete(context.Background(), "1", yes()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(ctrl.Documents()) != 2 {
		t.Error("deletion must survive a stats failure")
	}
	// stale server stats are dropped in favour of derived ones
	if got := ctrl.Stats()[0].Value; got != "2" {
		t.Errorf("stats total = %q, want 2", got)
	}
}

func TestController_DeleteDeclined(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)

	err := ctrl.Delete(context.Background(), "1", no())
	if !errors.Is(err, domain.ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
	if api.CallCount("delete") != 0 {
		t.Error("adapter must not be called without confirmation")
	}
	if len(ctrl.Documents()) != 3 {
		t.Error("document removed without confirmation")
	}
}

func TestController_DeleteConfirmationSeesDocument(t *testing.T) {
	ctrl, _ := newTestController(t, seedDocs()...)

	var asked string
	confirm := ports.ConfirmFunc(func(_ context.Context, doc domain.Document) (bool, error) {
		asked = doc.Name
		return true, nil
	})
	if err := ctrl.Delete(context.Background(), "3", confirm); err != nil {
		t.Fatal(err)
	}
	if asked != "passport.png" {
		t.Errorf("confirmer got %q", asked)
	}
}

func TestController_DeleteFailureLeavesDocument(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	api.DeleteErr = domain.NewOpError(domain.ErrDelete, "delete document", 500, "", nil)

	err := ctrl.Delete(context.Background(), "1", yes())
	if !errors.Is(err, domain.ErrDelete) {
		t.Errorf("err = %v, want ErrDelete", err)
	}
	if _, ok := ctrl.Document("1"); !ok {
		t.Error("document removed despite delete failure")
	}
}

func TestController_DeleteUnknown(t *testing.T) {
	ctrl, _ := newTestController(t, seedDocs()...)
	if err := ctrl.Delete(context.Background(), "nope", yes()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestController_LocalDocumentsStayOffTheServer(t *testing.T) {
	local := domain.Document{ID: domain.LocalIDPrefix + "abc", Name: "orphan.pdf"}
	ctrl, api := newTestController(t, local)
	ctx := context.Background()

	confirmed := false
	gate := ports.ConfirmFunc(func(context.Context, domain.Document) (bool, error) {
		confirmed = true
		return true, nil
	})
	if err := ctrl.Delete(ctx, local.ID, gate); !errors.Is(err, domain.ErrDelete) {
		t.Errorf("delete err = %v, want ErrDelete", err)
	}
	if confirmed {
		t.Error("confirmation asked for a document that cannot be deleted")
	}
	if _, err := ctrl.ResolvePreview(ctx, local.ID); !errors.Is(err, domain.ErrPreviewUnavailable) {
		t.Errorf("preview err = %v, want ErrPreviewUnavailable", err)
	}
	if _, err := ctrl.RegenerateSummary(ctx, local.ID); !errors.Is(err, domain.ErrRegenerate) {
		t.Errorf("regenerate err = %v, want ErrRegenerate", err)
	}
	if _, err := ctrl.Chat(ctx, local.ID, "hello?"); !errors.Is(err, domain.ErrChat) {
		t.Errorf("chat err = %v, want ErrChat", err)
	}
	if _, err := ctrl.Verify(ctx, local.ID, "abc"); !errors.Is(err, domain.ErrVerify) {
		t.Errorf("verify err = %v, want ErrVerify", err)
	}

	for _, op := range []string{"delete", "preview", "regenerate", "chat", "verify"} {
		if n := api.CallCount(op); n != 0 {
			t.Errorf("%s reached the API %d times", op, n)
		}
	}
	if _, ok := ctrl.Document(local.ID); !ok {
		t.Error("local document should stay listed")
	}
}

func TestController_Upload(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	ctrl.SetView(domain.ViewUpload)

	doc, err := ctrl.Upload(context.Background(), ports.UploadRequest{
		Filename: "budget.xlsx",
		Content:  strings.NewReader("data"),
		Tags:     "Finance, Legal",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if doc.Category != "Finance, Legal" {
		t.Errorf("category = %q, want submitted tags", doc.Category)
	}
	docs := ctrl.Documents()
	if docs[0].ID != doc.ID {
		t.Errorf("uploaded document not at the front: %+v", docs[0])
	}
	if len(docs) != 4 {
		t.Errorf("documents = %d, want 4", len(docs))
	}
	if ctrl.View() != domain.ViewDashboard {
		t.Errorf("view = %q, want dashboard", ctrl.View())
	}
	if api.CallCount("list") != 1 {
		t.Error("upload should not trigger a full re-fetch")
	}
}

func TestController_UploadWithoutTags(t *testing.T) {
	ctrl, _ := newTestController(t)
	doc, err := ctrl.Upload(context.Background(), ports.UploadRequest{Filename: "a.txt", Content: strings.NewReader("x")})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Category != domain.DefaultCategory {
		t.Errorf("category = %q, want %q", doc.Category, domain.DefaultCategory)
	}
}

func TestController_UploadFailure(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	ctrl.SetView(domain.ViewUpload)
	api.UploadErr = domain.NewOpError(domain.ErrUpload, "upload", 413, "File too large", nil)

	_, err := ctrl.Upload(context.Background(), ports.UploadRequest{Filename: "big.pdf", Content: strings.NewReader("x")})
	if domain.UserMessage(err) != "File too large" {
		t.Errorf("message = %q", domain.UserMessage(err))
	}
	if len(ctrl.Documents()) != 3 || ctrl.View() != domain.ViewUpload {
		t.Error("failed upload must leave state untouched")
	}
}

func TestController_SelectForInsights(t *testing.T) {
	ctrl, _ := newTestController(t, seedDocs()...)

	doc, err := ctrl.SelectForInsights("1")
	if err != nil {
		t.Fatal(err)
	}
	if ctrl.View() != domain.ViewInsights {
		t.Errorf("view = %q, want insights", ctrl.View())
	}
	selected, ok := ctrl.Selected()
	if !ok || selected.ID != doc.ID {
		t.Errorf("selected = %+v", selected)
	}

	transcript := ctrl.Transcript("1")
	if len(transcript) != 1 || !strings.Contains(transcript[0].Text, `"invoice-march.pdf"`) {
		t.Errorf("expected greeting, got %+v", transcript)
	}
}

type countingOpener struct {
	opened atomic.Int32
	last   string
}

func (o *countingOpener) Open(_ context.Context, target string) error {
	o.opened.Add(1)
	o.last = target
	return nil
}

func TestController_RequestPreview(t *testing.T) {
	docs := seedDocs()
	docs[0].URL = "https://files.example.com/1"

	api := mocks.NewMockAPI(docs...)
	api.SetPreviewURL("2", "https://files.example.com/2")
	opener := &countingOpener{}
	ctrl := NewController(api, opener)
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	url, err := ctrl.RequestPreview(context.Background(), "1")
	if err != nil || url != docs[0].URL {
		t.Fatalf("inline preview = %q, %v", url, err)
	}
	if api.CallCount("preview") != 0 {
		t.Error("inline URL must not hit the preview endpoint")
	}

	url, err = ctrl.RequestPreview(context.Background(), "2")
	if err != nil || url != "https://files.example.com/2" {
		t.Fatalf("lazy preview = %q, %v", url, err)
	}
	// second request uses the cached URL
	if _, err := ctrl.RequestPreview(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}
	if api.CallCount("preview") != 1 {
		t.Errorf("preview calls = %d, want 1", api.CallCount("preview"))
	}
	if opener.opened.Load() != 3 || opener.last != "https://files.example.com/2" {
		t.Errorf("opener calls = %d last = %q", opener.opened.Load(), opener.last)
	}
	if p, ok := ctrl.Preview(); !ok || p.ID != "2" {
		t.Errorf("preview document = %+v", p)
	}
}

func TestController_RequestPreviewUnavailable(t *testing.T) {
	ctrl, _ := newTestController(t, seedDocs()...)
	opener := &mocks.MockOpener{}
	ctrl.opener = opener

	_, err := ctrl.RequestPreview(context.Background(), "3")
	if !errors.Is(err, domain.ErrPreviewUnavailable) {
		t.Errorf("err = %v, want ErrPreviewUnavailable", err)
	}
	if len(opener.Opened) != 0 {
		t.Error("nothing should be opened when the URL cannot be resolved")
	}
	if _, ok := ctrl.Preview(); ok {
		t.Error("preview should stay empty")
	}
}

func TestController_RegenerateSummary(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	api.SetSummary("2", domain.Summary{Summary: "A lease.", Category: "Legal", Validity: "2030-01-01"})

	doc, err := ctrl.RegenerateSummary(context.Background(), "2")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Summary != "A lease." || doc.AIStatus != domain.AIProcessed || doc.Category != "Legal" {
		t.Errorf("regenerated = %+v", doc)
	}
	stored, _ := ctrl.Document("2")
	if stored.Summary != "A lease." {
		t.Error("summary not applied to the collection")
	}
}

func TestController_RegenerateFailure(t *testing.T) {
	ctrl, api := newTestController(t, seedDocs()...)
	api.RegenerateErr = domain.NewOpError(domain.ErrRegenerate, "regenerate summary", 500, "", nil)

	if _, err := ctrl.RegenerateSummary(context.Background(), "2"); !errors.Is(err, domain.ErrRegenerate) {
		t.Errorf("err = %v", err)
	}
	stored, _ := ctrl.Document("2")
	if stored.AIStatus != domain.AIQueued {
		t.Error("state modified on failure")
	}
}

func TestController_Expirations(t *testing.T) {
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.Local)
	docs := []domain.Document{
		{ID: "a", Validity: "2024-06-06"},
		{ID: "b", Validity: "2024-05-29"},
		{ID: "c", Validity: "N/A"},
		{ID: "d", Validity: "2024-08-01", AIStatus: domain.AIProcessed},
	}
	ctrl, _ := newTestController(t, docs...)

	tracked := ctrl.Expirations(now)
	if len(tracked) != 3 || tracked[0].Document.ID != "b" || tracked[2].Document.ID != "d" {
		t.Errorf("tracked = %+v", tracked)
	}

	s := ctrl.ExpirationSummary(now)
	if s.Expired != 1 || s.ExpiringSoon != 1 || s.ActionRequired != 2 || s.Processed != 1 {
		t.Errorf("summary = %+v", s)
	}

	ctrl.SetThresholds(domain.Thresholds{ExpiringSoonDays: 3, ActionRequiredDays: 3})
	if got := ctrl.Expirations(now)[1].Bucket; got != domain.BucketValid {
		t.Errorf("bucket with 3 day window = %v, want Valid", got)
	}
	if len(ctrl.Insights()) != 1 {
		t.Error("expected one processed insight")
	}
}

func TestController_Verify(t *testing.T) {
	ctrl, _ := newTestController(t, seedDocs()...)

	ok, err := ctrl.Verify(context.Background(), "1", " 0xAAA ")
	if err != nil || !ok {
		t.Errorf("Verify = %v, %v", ok, err)
	}
	ok, _ = ctrl.Verify(context.Background(), "1", "0xbbb")
	if ok {
		t.Error("mismatching hash verified")
	}
}
