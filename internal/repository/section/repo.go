// Package section persists embedded document chunks and serves similarity search.
package section

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/domain"
)

// store is the consumer interface for section storage (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements the section storage contract.
type Repo struct {
	store     store
	vectorDim int
}

// New creates a section repository for vectors of the given dimensionality.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim}
}

// EnsureIndex creates the FT index over section hashes if it does not exist.
// FLAT (exact) cosine search: the corpus per document is small, and exact
// scores are what the similarity threshold is defined against.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, domain.SectionIndexName)
	if err != nil {
		return fmt.Errorf("check section index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     domain.SectionIndexName,
		Prefixes: []string{domain.AllSectionsPrefix},
		Fields: []db.IndexField{
			{Name: "file_hash", Type: db.IndexFieldTag},
			{
				Name:           "vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorFlat,
				VectorDim:      r.vectorDim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create section index: %w", err)
	}
	return nil
}

// Replace swaps the full section set for a document: prior sections are
// deleted and the new set inserted in one pipelined round-trip, so stale
// chunks never accumulate across re-indexing.
func (r *Repo) Replace(ctx context.Context, hash string, sections []domain.Section) error {
	old, err := r.store.Scan(ctx, domain.SectionKeyPrefix(hash)+"*")
	if err != nil {
		return fmt.Errorf("scan sections %s: %w", hash, err)
	}
	if err := r.store.DelMulti(ctx, old); err != nil {
		return fmt.Errorf("delete sections %s: %w", hash, err)
	}

	if len(sections) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(sections))
	for i, sec := range sections {
		items[i] = db.HashSetItem{
			Key: domain.SectionKey(hash, sec.Ordinal),
			Fields: map[string]string{
				"file_hash": hash,
				"ordinal":   strconv.Itoa(sec.Ordinal),
				"content":   sec.Content,
				"vector":    db.VectorToBytes(sec.Vector),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("insert sections %s: %w", hash, err)
	}
	return nil
}

// Match returns up to limit sections of the given document whose cosine
// similarity to the query vector is strictly above threshold, ordered by
// descending similarity. An empty result is not an error. The TAG pre-filter
// guarantees the search never crosses into another document's sections.
func (r *Repo) Match(
	ctx context.Context, hash string, vector []float32, threshold float64, limit int,
) ([]domain.Match, error) {
	q := &db.KNNQuery{
		IndexName:    domain.SectionIndexName,
		Filter:       &db.TagFilter{Field: "file_hash", Value: hash},
		Vector:       vector,
		K:            limit,
		ReturnFields: []string{"content", "ordinal"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("match sections %s: %w", hash, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	matches := make([]domain.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if entry.Score <= threshold {
			continue
		}
		m := domain.Match{
			DocumentHash: hash,
			Content:      entry.Fields["content"],
			Similarity:   entry.Score,
		}
		if ord, err := strconv.Atoi(entry.Fields["ordinal"]); err == nil {
			m.Ordinal = ord
		} else {
			m.Ordinal = ordinalFromKey(entry.Key, hash)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Wipe removes every section hash. The FT index stays; it re-tracks new keys.
func (r *Repo) Wipe(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, domain.AllSectionsPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan sections: %w", err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}
	return nil
}

func ordinalFromKey(key, hash string) int {
	suffix := strings.TrimPrefix(key, domain.SectionKeyPrefix(hash))
	if ord, err := strconv.Atoi(suffix); err == nil {
		return ord
	}
	return 0
}
