package chat

import (
	"context"

	"github.com/examdeck/examdeck/internal/domain"
)

// SectionRepository runs similarity search scoped to a single document.
type SectionRepository interface {
	Match(
		ctx context.Context, hash string, vector []float32, threshold float64, limit int,
	) ([]domain.Match, error)
}

// DocumentRepository reads document records for existence checks.
type DocumentRepository interface {
	Get(ctx context.Context, hash string) (domain.Document, error)
}

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces the grounded tutoring answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}

// Transcript records the question and answer of a chat turn.
type Transcript interface {
	Append(role domain.Role, content string)
}
