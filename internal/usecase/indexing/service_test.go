package indexing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/examdeck/examdeck/internal/chunk"
	"github.com/examdeck/examdeck/internal/domain"
)

// --- Mocks ---

type mockDocRepo struct {
	insertCreated  bool
	insertErr      error
	insertedDoc    domain.Document
	getResult      domain.Document
	getErr         error
	analysisSet    string
	analysisHash   string
	setAnalysisErr error
}

func (m *mockDocRepo) InsertIfAbsent(_ context.Context, doc domain.Document) (bool, error) {
	m.insertedDoc = doc
	return m.insertCreated, m.insertErr
}

func (m *mockDocRepo) Get(_ context.Context, _ string) (domain.Document, error) {
	return m.getResult, m.getErr
}

func (m *mockDocRepo) SetAnalysis(_ context.Context, hash, analysis string) error {
	m.analysisHash = hash
	m.analysisSet = analysis
	return m.setAnalysisErr
}

type mockSectionRepo struct {
	replaced     []domain.Section
	replacedHash string
	replaceErr   error
	called       bool
}

func (m *mockSectionRepo) Replace(_ context.Context, hash string, sections []domain.Section) error {
	m.called = true
	m.replacedHash = hash
	m.replaced = sections
	return m.replaceErr
}

type mockEmbedder struct {
	errOn map[string]error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if err := m.errOn[text]; err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 2, 3}}, nil
}

type mockGenerator struct {
	result string
	err    error
	calls  int
	prompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (domain.GenerationResult, error) {
	m.calls++
	m.prompt = prompt
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return domain.GenerationResult{Text: m.result}, nil
}

func newTestService(
	t *testing.T, docs *mockDocRepo, sections *mockSectionRepo,
	embed *mockEmbedder, gen *mockGenerator, text string,
) *Service {
	t.Helper()
	svc := New(docs, sections, embed, gen, chunk.NewSplitter(4), zap.NewNop())
	svc.extractText = func(_ []byte) (string, error) { return text, nil }
	return svc
}

// --- Ingest ---

func TestIngest_HappyPath(t *testing.T) {
	docs := &mockDocRepo{insertCreated: true}
	sections := &mockSectionRepo{}
	embed := &mockEmbedder{}
	gen := &mockGenerator{result: "analysis report"}
	svc := newTestService(t, docs, sections, embed, gen, "abcdefgh")

	report, err := svc.Ingest(context.Background(), "paper.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Hash != domain.ContentHash("abcdefgh") {
		t.Errorf("unexpected hash: %s", report.Hash)
	}
	if !report.Created || !report.Analyzed {
		t.Errorf("expected created and analyzed, got %+v", report)
	}
	if report.SectionsIndexed != 2 || report.SectionsDropped != 0 {
		t.Errorf("expected 2 indexed sections, got %+v", report)
	}
	if docs.analysisSet != "analysis report" {
		t.Errorf("analysis not stored verbatim: %s", docs.analysisSet)
	}
	if !strings.Contains(gen.prompt, "paper.pdf") {
		t.Error("analysis prompt must include the file name")
	}
	if sections.replacedHash != report.Hash {
		t.Errorf("sections stored under wrong hash: %s", sections.replacedHash)
	}
	if sections.replaced[0].Content != "abcd" || sections.replaced[1].Content != "efgh" {
		t.Errorf("unexpected chunking: %+v", sections.replaced)
	}
	if sections.replaced[1].Ordinal != 1 {
		t.Errorf("expected ordinal 1, got %d", sections.replaced[1].Ordinal)
	}
}

func TestIngest_ExtractionFailure(t *testing.T) {
	docs := &mockDocRepo{}
	sections := &mockSectionRepo{}
	svc := newTestService(t, docs, sections, &mockEmbedder{}, &mockGenerator{}, "")
	svc.extractText = func(_ []byte) (string, error) {
		return "", domain.ErrExtraction
	}

	_, err := svc.Ingest(context.Background(), "broken.pdf", []byte("junk"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if sections.called {
		t.Error("nothing must be indexed on extraction failure")
	}
}

func TestIngest_EmptyTextStopsAfterRecord(t *testing.T) {
	docs := &mockDocRepo{insertCreated: true}
	sections := &mockSectionRepo{}
	embed := &mockEmbedder{}
	gen := &mockGenerator{}
	svc := newTestService(t, docs, sections, embed, gen, "   \n ")

	report, err := svc.Ingest(context.Background(), "scan.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Created {
		t.Error("empty document must still be recorded")
	}
	if gen.calls != 0 {
		t.Error("no analysis for an empty document")
	}
	if embed.calls != 0 || sections.called {
		t.Error("no indexing for an empty document")
	}
}

func TestIngest_AnalysisFailureDegradesGracefully(t *testing.T) {
	docs := &mockDocRepo{insertCreated: true}
	sections := &mockSectionRepo{}
	gen := &mockGenerator{err: domain.ErrGeneration}
	svc := newTestService(t, docs, sections, &mockEmbedder{}, gen, "abcdefgh")

	report, err := svc.Ingest(context.Background(), "paper.pdf", []byte("%PDF"))
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration surfaced, got %v", err)
	}
	if report.Analyzed {
		t.Error("report must not claim analysis")
	}
	if report.SectionsIndexed != 2 {
		t.Errorf("sections must still be indexed, got %d", report.SectionsIndexed)
	}
	if !sections.called {
		t.Error("section replace must run despite analysis failure")
	}
}

func TestIngest_ReplaceFailureKeepsAnalysisError(t *testing.T) {
	errReplace := errors.New("search index down")
	docs := &mockDocRepo{insertCreated: true}
	sections := &mockSectionRepo{replaceErr: errReplace}
	gen := &mockGenerator{err: domain.ErrGeneration}
	svc := newTestService(t, docs, sections, &mockEmbedder{}, gen, "abcdefgh")

	_, err := svc.Ingest(context.Background(), "paper.pdf", []byte("%PDF"))
	if !errors.Is(err, errReplace) {
		t.Fatalf("expected replace error surfaced, got %v", err)
	}
	if !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("analysis failure must not be dropped, got %v", err)
	}
}

func TestIngest_FailedChunkDroppedSilently(t *testing.T) {
	docs := &mockDocRepo{insertCreated: true}
	sections := &mockSectionRepo{}
	embed := &mockEmbedder{errOn: map[string]error{"efgh": domain.ErrEmbeddingUnavailable}}
	svc := newTestService(t, docs, sections, embed, &mockGenerator{result: "ok"}, "abcdefghijkl")

	report, err := svc.Ingest(context.Background(), "paper.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.SectionsIndexed != 2 || report.SectionsDropped != 1 {
		t.Errorf("expected 2 indexed and 1 dropped, got %+v", report)
	}
	ordinals := []int{sections.replaced[0].Ordinal, sections.replaced[1].Ordinal}
	if ordinals[0] != 0 || ordinals[1] != 2 {
		t.Errorf("surviving chunks must keep their original ordinals, got %v", ordinals)
	}
}

func TestIngest_DuplicateAnalyzedSkipsAnalysis(t *testing.T) {
	docs := &mockDocRepo{
		insertCreated: false,
		getResult:     domain.Document{Status: domain.StatusAnalyzed, Analysis: "stored"},
	}
	sections := &mockSectionRepo{}
	gen := &mockGenerator{result: "fresh"}
	svc := newTestService(t, docs, sections, &mockEmbedder{}, gen, "abcdefgh")

	report, err := svc.Ingest(context.Background(), "paper.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 0 {
		t.Error("analysis must not be regenerated for an analyzed duplicate")
	}
	if !report.Analyzed {
		t.Error("report should mark the duplicate as analyzed")
	}
	if report.Created {
		t.Error("duplicate must not be reported as created")
	}
	if !sections.called {
		t.Error("re-upload still replaces the section set")
	}
}

func TestIngest_DuplicateNotAnalyzedRetriesAnalysis(t *testing.T) {
	docs := &mockDocRepo{
		insertCreated: false,
		getResult:     domain.Document{Status: domain.StatusCompleted},
	}
	gen := &mockGenerator{result: "second attempt"}
	svc := newTestService(t, docs, &mockSectionRepo{}, &mockEmbedder{}, gen, "abcdefgh")

	report, err := svc.Ingest(context.Background(), "paper.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("expected one analysis attempt, got %d", gen.calls)
	}
	if !report.Analyzed || docs.analysisSet != "second attempt" {
		t.Error("retry must store the new analysis")
	}
}
