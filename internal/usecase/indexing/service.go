// Package indexing runs the upload pipeline: extract, analyze, chunk, embed, store.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/examdeck/examdeck/internal/domain"
	"github.com/examdeck/examdeck/internal/extract"
	"github.com/examdeck/examdeck/internal/metrics"
	"github.com/examdeck/examdeck/internal/prompt"
)

// Report summarizes what a single upload produced.
type Report struct {
	Hash            string `json:"hash"`
	Created         bool   `json:"created"`
	Analyzed        bool   `json:"analyzed"`
	SectionsIndexed int    `json:"sections_indexed"`
	SectionsDropped int    `json:"sections_dropped"`
}

// Service ingests uploaded exam papers.
type Service struct {
	docs     DocumentRepository
	sections SectionRepository
	embed    Embedder
	gen      Generator
	splitter Splitter
	logger   *zap.Logger

	// extractText is swappable in tests; production uses extract.PDFBytes.
	extractText func(payload []byte) (string, error)
}

// New creates an indexing service.
func New(
	docs DocumentRepository, sections SectionRepository,
	embed Embedder, gen Generator, splitter Splitter, logger *zap.Logger,
) *Service {
	return &Service{
		docs:        docs,
		sections:    sections,
		embed:       embed,
		gen:         gen,
		splitter:    splitter,
		logger:      logger,
		extractText: extract.PDFBytes,
	}
}

// Ingest processes one uploaded PDF end to end. The returned report is valid
// even when err is non-nil: a failed analysis still leaves an indexed,
// chattable document behind.
func (s *Service) Ingest(ctx context.Context, fileName string, payload []byte) (Report, error) {
	text, err := s.extractText(payload)
	if err != nil {
		return Report{}, fmt.Errorf("extract %s: %w", fileName, err)
	}

	hash := domain.ContentHash(text)
	report := Report{Hash: hash}

	created, err := s.docs.InsertIfAbsent(ctx, domain.Document{
		Hash:      hash,
		FileName:  fileName,
		Text:      text,
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return report, fmt.Errorf("store document %s: %w", hash, err)
	}
	report.Created = created

	// Image-only or blank PDFs produce no text: keep the record so the
	// upload is visible, but there is nothing to analyze or index.
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("Document has no extractable text",
			zap.String("file_name", fileName),
			zap.String("hash", hash))
		return report, nil
	}

	analysisErr := s.analyze(ctx, hash, fileName, text, created)
	if analysisErr == nil {
		report.Analyzed = true
	}

	sections, dropped := s.embedChunks(ctx, hash, text)
	report.SectionsIndexed = len(sections)
	report.SectionsDropped = dropped

	if err := s.sections.Replace(ctx, hash, sections); err != nil {
		return report, errors.Join(analysisErr, fmt.Errorf("index sections %s: %w", hash, err))
	}
	metrics.SectionsIndexedTotal.Add(float64(len(sections)))

	s.logger.Info("Document ingested",
		zap.String("file_name", fileName),
		zap.String("hash", hash),
		zap.Bool("created", created),
		zap.Bool("analyzed", report.Analyzed),
		zap.Int("sections_indexed", report.SectionsIndexed),
		zap.Int("sections_dropped", report.SectionsDropped))

	return report, analysisErr
}

// analyze requests the structured exam analysis and stores it verbatim.
// A re-upload of an already analyzed paper keeps the stored analysis and
// skips the model call.
func (s *Service) analyze(ctx context.Context, hash, fileName, text string, created bool) error {
	if !created {
		doc, err := s.docs.Get(ctx, hash)
		if err != nil {
			return fmt.Errorf("load document %s: %w", hash, err)
		}
		if doc.Status == domain.StatusAnalyzed {
			return nil
		}
	}

	res, err := s.gen.Generate(ctx, prompt.Analysis(fileName, text))
	if err != nil {
		s.logger.Error("Document analysis failed",
			zap.String("file_name", fileName),
			zap.String("hash", hash),
			zap.Error(err))
		return fmt.Errorf("analyze %s: %w", hash, err)
	}

	if err := s.docs.SetAnalysis(ctx, hash, res.Text); err != nil {
		return fmt.Errorf("store analysis %s: %w", hash, err)
	}
	return nil
}

// embedChunks splits the text and embeds each chunk, one call per chunk.
// A chunk whose embedding fails is dropped from the batch; the rest of the
// document stays searchable.
func (s *Service) embedChunks(ctx context.Context, hash, text string) ([]domain.Section, int) {
	chunks := s.splitter.Split(text)

	sections := make([]domain.Section, 0, len(chunks))
	dropped := 0

	for i, chunk := range chunks {
		res, err := s.embed.Embed(ctx, chunk)
		if err != nil {
			dropped++
			metrics.SectionsDroppedTotal.Inc()
			s.logger.Warn("Chunk embedding failed, dropping",
				zap.String("hash", hash),
				zap.Int("ordinal", i),
				zap.Error(err))
			continue
		}
		sections = append(sections, domain.Section{
			DocumentHash: hash,
			Ordinal:      i,
			Content:      chunk,
			Vector:       res.Embedding,
		})
	}

	return sections, dropped
}
