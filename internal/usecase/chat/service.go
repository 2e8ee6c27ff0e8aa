// Package chat answers student questions grounded in a document's indexed sections.
package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/examdeck/examdeck/internal/domain"
	"github.com/examdeck/examdeck/internal/metrics"
	"github.com/examdeck/examdeck/internal/prompt"
)

// Answer is one completed chat turn.
type Answer struct {
	Text    string
	Matches []domain.Match
}

// Service runs the retrieval-grounded chat pipeline.
type Service struct {
	docs      DocumentRepository
	sections  SectionRepository
	embed     Embedder
	gen       Generator
	threshold float64
	limit     int
	logger    *zap.Logger
}

// New creates a chat service with the given similarity threshold and match limit.
func New(
	docs DocumentRepository, sections SectionRepository,
	embed Embedder, gen Generator,
	threshold float64, limit int, logger *zap.Logger,
) *Service {
	return &Service{
		docs:      docs,
		sections:  sections,
		embed:     embed,
		gen:       gen,
		threshold: threshold,
		limit:     limit,
		logger:    logger,
	}
}

// Ask answers a question about the given document and appends both sides of
// the turn to the transcript. When no section clears the similarity
// threshold it returns domain.ErrNoRelevantSections without calling the
// generator, so the caller can show a plain "nothing relevant" message.
func (s *Service) Ask(
	ctx context.Context, transcript Transcript, hash, question string,
) (Answer, error) {
	if _, err := s.docs.Get(ctx, hash); err != nil {
		return Answer{}, fmt.Errorf("load document %s: %w", hash, err)
	}

	embRes, err := s.embed.Embed(ctx, question)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues("error").Inc()
		return Answer{}, fmt.Errorf("vectorize question: %w", err)
	}

	matches, err := s.sections.Match(ctx, hash, embRes.Embedding, s.threshold, s.limit)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues("error").Inc()
		return Answer{}, fmt.Errorf("match sections: %w", err)
	}

	if len(matches) == 0 {
		metrics.ChatTurnsTotal.WithLabelValues("no_match").Inc()
		s.logger.Info("No sections above threshold",
			zap.String("hash", hash),
			zap.Float64("threshold", s.threshold))
		return Answer{}, domain.ErrNoRelevantSections
	}

	excerpts := make([]string, len(matches))
	for i, m := range matches {
		excerpts[i] = m.Content
	}

	genRes, err := s.gen.Generate(ctx, prompt.Tutor(excerpts, question))
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues("error").Inc()
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	transcript.Append(domain.RoleUser, question)
	transcript.Append(domain.RoleAssistant, genRes.Text)

	metrics.ChatTurnsTotal.WithLabelValues("answered").Inc()
	s.logger.Info("Chat turn answered",
		zap.String("hash", hash),
		zap.Int("matches", len(matches)),
		zap.Float64("top_similarity", matches[0].Similarity))

	return Answer{Text: genRes.Text, Matches: matches}, nil
}
