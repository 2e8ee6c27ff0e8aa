package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/domain"
)

func testDoc() domain.Document {
	return domain.Document{
		Hash:      "d41d8cd98f00b204e9800998ecf8427e",
		FileName:  "midterm-2024.pdf",
		Text:      "question one question two",
		CreatedAt: time.UnixMilli(1700000000000).UTC(),
	}
}

// --- InsertIfAbsent ---

func TestInsertIfAbsent_New(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	doc := testDoc()

	var hsetFields map[string]string
	var zaddHash string
	ms.existsFn = func(_ context.Context, key string) (bool, error) {
		if key != "examdeck:doc:"+doc.Hash {
			t.Errorf("unexpected key: %s", key)
		}
		return false, nil
	}
	ms.hsetFn = func(_ context.Context, _ string, fields map[string]string) error {
		hsetFields = fields
		return nil
	}
	ms.zaddFn = func(_ context.Context, key, member string, _ float64) error {
		if key != domain.DocumentsByDateKey {
			t.Errorf("unexpected zset key: %s", key)
		}
		zaddHash = member
		return nil
	}

	created, err := repo.InsertIfAbsent(ctx, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for a new hash")
	}
	if hsetFields["status"] != "completed" {
		t.Errorf("expected status completed, got %s", hsetFields["status"])
	}
	if hsetFields["content"] != doc.Text {
		t.Error("raw text must be stored verbatim")
	}
	if zaddHash != doc.Hash {
		t.Errorf("expected hash registered by date, got %s", zaddHash)
	}
}

func TestInsertIfAbsent_Duplicate(t *testing.T) {
	repo, ms := newTestRepo(t)

	var hsetCalled bool
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		hsetCalled = true
		return nil
	}

	created, err := repo.InsertIfAbsent(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected created=false for a duplicate hash")
	}
	if hsetCalled {
		t.Error("duplicate upload must not touch the stored record")
	}
}

// --- Get ---

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	_, err := repo.Get(context.Background(), "unknown")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestGet_ParsesFields(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{
			"hash":       "abc",
			"file_name":  "final.pdf",
			"content":    "text",
			"status":     "analyzed",
			"analysis":   "1. Repeated Questions...",
			"created_at": "1700000000000",
		}, nil
	}

	doc, err := repo.Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != domain.StatusAnalyzed {
		t.Errorf("expected analyzed, got %s", doc.Status)
	}
	if doc.Analysis == "" {
		t.Error("expected analysis text")
	}
	if doc.CreatedAt.UnixMilli() != 1700000000000 {
		t.Errorf("unexpected created_at: %v", doc.CreatedAt)
	}
}

// --- List ---

func TestList_NewestFirst(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.zrevRangeFn = func(_ context.Context, key string, _ int) ([]db.ScoredMember, error) {
		if key != domain.DocumentsByDateKey {
			t.Errorf("unexpected zset key: %s", key)
		}
		return []db.ScoredMember{
			{Member: "newer", Score: 2000},
			{Member: "older", Score: 1000},
		}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		return []map[string]string{
			{"hash": "newer", "file_name": "b.pdf", "status": "completed", "created_at": "2000"},
			{"hash": "older", "file_name": "a.pdf", "status": "analyzed", "created_at": "1000"},
		}, nil
	}

	docs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Hash != "newer" || docs[1].Hash != "older" {
		t.Errorf("expected newest first, got %s then %s", docs[0].Hash, docs[1].Hash)
	}
}

// --- SetAnalysis ---

func TestSetAnalysis_MarksAnalyzed(t *testing.T) {
	repo, ms := newTestRepo(t)

	var fields map[string]string
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.hsetFn = func(_ context.Context, _ string, f map[string]string) error {
		fields = f
		return nil
	}

	if err := repo.SetAnalysis(context.Background(), "abc", "report"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["analysis"] != "report" {
		t.Errorf("analysis not stored verbatim: %s", fields["analysis"])
	}
	if fields["status"] != "analyzed" {
		t.Errorf("expected status analyzed, got %s", fields["status"])
	}
}

func TestSetAnalysis_UnknownDocument(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	err := repo.SetAnalysis(context.Background(), "ghost", "report")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

// --- Wipe ---

func TestWipe_RemovesRecordsAndDateSet(t *testing.T) {
	repo, ms := newTestRepo(t)

	var deleted []string
	var delKey string
	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "examdeck:doc:*" {
			t.Errorf("unexpected scan pattern: %s", pattern)
		}
		return []string{"examdeck:doc:a", "examdeck:doc:b"}, nil
	}
	ms.delMultiFn = func(_ context.Context, keys []string) error {
		deleted = keys
		return nil
	}
	ms.delFn = func(_ context.Context, key string) error {
		delKey = key
		return nil
	}

	if err := repo.Wipe(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("expected 2 deleted keys, got %d", len(deleted))
	}
	if delKey != domain.DocumentsByDateKey {
		t.Errorf("expected date set deleted, got %s", delKey)
	}
}
