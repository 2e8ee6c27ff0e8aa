// Package document persists uploaded exam papers keyed by content hash.
package document

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/domain"
)

// store is the consumer interface for document records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZRevRange(ctx context.Context, key string, limit int) ([]db.ScoredMember, error)
	ZRem(ctx context.Context, key string, members ...string) error
}

// Repo implements the document storage contract.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// InsertIfAbsent stores a new document record with status "completed".
// Returns false without touching the store when the hash already exists
// (dedup: identical extracted text maps to one record).
func (r *Repo) InsertIfAbsent(ctx context.Context, doc domain.Document) (bool, error) {
	key := domain.DocumentKey(doc.Hash)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check document %s: %w", doc.Hash, err)
	}
	if exists {
		return false, nil
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if err := r.store.HSet(ctx, key, map[string]string{
		"hash":       doc.Hash,
		"file_name":  doc.FileName,
		"content":    doc.Text,
		"status":     string(domain.StatusCompleted),
		"created_at": strconv.FormatInt(createdAt.UnixMilli(), 10),
	}); err != nil {
		return false, fmt.Errorf("insert document %s: %w", doc.Hash, err)
	}

	if err := r.store.ZAdd(ctx, domain.DocumentsByDateKey, doc.Hash, float64(createdAt.UnixMilli())); err != nil {
		return false, fmt.Errorf("register document %s: %w", doc.Hash, err)
	}

	return true, nil
}

// Get returns a document by content hash, including its raw text and analysis.
func (r *Repo) Get(ctx context.Context, hash string) (domain.Document, error) {
	fields, err := r.store.HGetAll(ctx, domain.DocumentKey(hash))
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document %s: %w", hash, err)
	}
	if len(fields) == 0 {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return parseDocument(fields), nil
}

// List returns all documents ordered by upload time, newest first.
// Raw text is included; callers decide what to expose.
func (r *Repo) List(ctx context.Context) ([]domain.Document, error) {
	// Large limit: the portal's library is small by design.
	members, err := r.store.ZRevRange(ctx, domain.DocumentsByDateKey, 10_000)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = domain.DocumentKey(m.Member)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(hashes))
	for _, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		docs = append(docs, parseDocument(fields))
	}

	// ZRevRange already orders by score; keep a deterministic tiebreak.
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	return docs, nil
}

// SetAnalysis stores the verbatim analysis text and marks the document analyzed.
func (r *Repo) SetAnalysis(ctx context.Context, hash, analysis string) error {
	key := domain.DocumentKey(hash)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check document %s: %w", hash, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.HSet(ctx, key, map[string]string{
		"analysis": analysis,
		"status":   string(domain.StatusAnalyzed),
	}); err != nil {
		return fmt.Errorf("set analysis %s: %w", hash, err)
	}
	return nil
}

// Wipe removes every document record and the upload-time set.
// Bulk reset only; individual documents are never deleted.
func (r *Repo) Wipe(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, domain.DocumentKey("*"))
	if err != nil {
		return fmt.Errorf("scan documents: %w", err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if err := r.store.Del(ctx, domain.DocumentsByDateKey); err != nil {
		return fmt.Errorf("delete document set: %w", err)
	}
	return nil
}

func parseDocument(fields map[string]string) domain.Document {
	doc := domain.Document{
		Hash:     fields["hash"],
		FileName: fields["file_name"],
		Text:     fields["content"],
		Status:   domain.Status(fields["status"]),
		Analysis: fields["analysis"],
	}
	if ms, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		doc.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return doc
}
