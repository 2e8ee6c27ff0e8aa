// Package examdeck is the in-process SDK: the portal's pipelines wired
// directly over Redis, without the HTTP layer.
package examdeck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/examdeck/examdeck/internal/chunk"
	"github.com/examdeck/examdeck/internal/db"
	dbRedis "github.com/examdeck/examdeck/internal/db/redis"
	"github.com/examdeck/examdeck/internal/domain"
	documentrepo "github.com/examdeck/examdeck/internal/repository/document"
	sectionrepo "github.com/examdeck/examdeck/internal/repository/section"
	userrepo "github.com/examdeck/examdeck/internal/repository/user"
	"github.com/examdeck/examdeck/internal/session"
	openaiTransport "github.com/examdeck/examdeck/internal/transport/openai"
	chatuc "github.com/examdeck/examdeck/internal/usecase/chat"
	indexinguc "github.com/examdeck/examdeck/internal/usecase/indexing"
	studentuc "github.com/examdeck/examdeck/internal/usecase/student"
)

const defaultReadinessTimeout = 10 * time.Second

// errNoLLM is returned by operations that need a provider when WithLLM was not set.
var errNoLLM = errors.New("examdeck: no LLM API key configured (use WithLLM)")

// Narrow interfaces so tests can swap the services.
type indexingUseCase interface {
	Ingest(ctx context.Context, fileName string, payload []byte) (indexinguc.Report, error)
}

type chatUseCase interface {
	Ask(ctx context.Context, transcript chatuc.Transcript, hash, question string) (chatuc.Answer, error)
}

type studentUseCase interface {
	Login(ctx context.Context, email string) (domain.User, *session.Session, error)
	MarkMastered(ctx context.Context, email, hash string) (int64, error)
	Leaderboard(ctx context.Context) ([]domain.User, error)
}

type documentReader interface {
	Get(ctx context.Context, hash string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

// Client is the examdeck SDK entry point.
type Client struct {
	store    db.Store
	docs     documentReader
	indexing indexingUseCase
	chat     chatUseCase
	students studentUseCase
	wipers   []interface {
		Wipe(ctx context.Context) error
	}
}

// New creates a Client and connects to Redis. The context bounds the initial
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		baseURL:         "https://generativelanguage.googleapis.com/v1beta/openai/",
		chatModel:       "gemini-2.0-flash",
		embeddingModel:  "gemini-embedding-001",
		dimensions:      3072,
		maxTokens:       8192,
		temperature:     0.3,
		chunkSize:       chunk.DefaultSize,
		threshold:       0.3,
		limit:           5,
		masteredAward:   100,
		leaderboardSize: 10,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("examdeck: Redis address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("examdeck: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("examdeck: database not ready: %w", err)
	}

	return wireClient(ctx, store, cfg)
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	var (
		embedder indexinguc.Embedder = noLLM{}
		gen      indexinguc.Generator = noLLM{}
	)
	if cfg.apiKey != "" {
		embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.dimensions,
			Logger:     cfg.logger,
		})
		gen = openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
			APIKey:      cfg.apiKey,
			BaseURL:     cfg.baseURL,
			Model:       cfg.chatModel,
			MaxTokens:   cfg.maxTokens,
			Temperature: cfg.temperature,
			Logger:      cfg.logger,
		})
	}

	users := userrepo.New(store)
	docs := documentrepo.New(store)
	sections := sectionrepo.New(store, cfg.dimensions)

	if err := sections.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("examdeck: ensure section index: %w", err)
	}

	sessions := session.NewRegistry()
	splitter := chunk.NewSplitter(cfg.chunkSize)

	return &Client{
		store:    store,
		docs:     docs,
		indexing: indexinguc.New(docs, sections, embedder, gen, splitter, cfg.logger),
		chat: chatuc.New(docs, sections, embedder, gen,
			cfg.threshold, cfg.limit, cfg.logger),
		students: studentuc.New(users, docs, sessions,
			cfg.masteredAward, cfg.leaderboardSize, cfg.logger),
		wipers: []interface {
			Wipe(ctx context.Context) error
		}{sections, docs},
	}, nil
}

// Close releases the database connection.
func (c *Client) Close() {
	c.store.Close()
}

// Login upserts the student and opens a session whose transcript the chat
// methods append to.
func (c *Client) Login(ctx context.Context, email string) (domain.User, *session.Session, error) {
	return c.students.Login(ctx, email)
}

// Ingest stores, analyzes, and indexes one PDF payload.
func (c *Client) Ingest(ctx context.Context, fileName string, payload []byte) (indexinguc.Report, error) {
	return c.indexing.Ingest(ctx, fileName, payload)
}

// Documents lists stored documents, newest first.
func (c *Client) Documents(ctx context.Context) ([]domain.Document, error) {
	return c.docs.List(ctx)
}

// Document loads one document with its analysis.
func (c *Client) Document(ctx context.Context, hash string) (domain.Document, error) {
	return c.docs.Get(ctx, hash)
}

// Ask answers a question grounded in the given document and records the turn
// in the session transcript.
func (c *Client) Ask(
	ctx context.Context, sess *session.Session, hash, question string,
) (chatuc.Answer, error) {
	return c.chat.Ask(ctx, sess, hash, question)
}

// MarkMastered awards XP for mastering a document and returns the new total.
func (c *Client) MarkMastered(ctx context.Context, email, hash string) (int64, error) {
	return c.students.MarkMastered(ctx, email, hash)
}

// Leaderboard returns the top students by XP.
func (c *Client) Leaderboard(ctx context.Context) ([]domain.User, error) {
	return c.students.Leaderboard(ctx)
}

// Wipe clears every document and section record.
func (c *Client) Wipe(ctx context.Context) error {
	for _, w := range c.wipers {
		if err := w.Wipe(ctx); err != nil {
			return err
		}
	}
	return nil
}

// noLLM satisfies the provider interfaces when no API key is configured.
type noLLM struct{}

func (noLLM) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, errNoLLM)
}

func (noLLM) Generate(context.Context, string) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, fmt.Errorf("%w: %w", domain.ErrGeneration, errNoLLM)
}
