package indexing

import (
	"context"

	"github.com/examdeck/examdeck/internal/domain"
)

// DocumentRepository persists uploaded documents.
type DocumentRepository interface {
	InsertIfAbsent(ctx context.Context, doc domain.Document) (bool, error)
	Get(ctx context.Context, hash string) (domain.Document, error)
	SetAnalysis(ctx context.Context, hash, analysis string) error
}

// SectionRepository persists the embedded chunk set of a document.
type SectionRepository interface {
	Replace(ctx context.Context, hash string, sections []domain.Section) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces the structured document analysis.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}

// Splitter cuts extracted text into fixed-size chunks.
type Splitter interface {
	Split(text string) []string
}
