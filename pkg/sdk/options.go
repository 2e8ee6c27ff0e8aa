package examdeck

import "go.uber.org/zap"

type clientConfig struct {
	addrs    []string
	username string
	password string

	apiKey         string
	baseURL        string
	chatModel      string
	embeddingModel string
	dimensions     int
	maxTokens      int
	temperature    float32

	chunkSize int
	threshold float64
	limit     int

	masteredAward   int64
	leaderboardSize int

	logger *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the Redis addresses (required).
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithRedisAuth sets Redis credentials.
func WithRedisAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithLLM sets the provider API key. Without it, uploads are stored but
// analysis, indexing, and chat return errors.
func WithLLM(apiKey string) Option {
	return func(c *clientConfig) { c.apiKey = apiKey }
}

// WithBaseURL points the LLM clients at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) { c.baseURL = baseURL }
}

// WithModels overrides the chat and embedding model names.
func WithModels(chatModel, embeddingModel string) Option {
	return func(c *clientConfig) {
		c.chatModel = chatModel
		c.embeddingModel = embeddingModel
	}
}

// WithDimensions overrides the embedding dimensionality.
func WithDimensions(dim int) Option {
	return func(c *clientConfig) { c.dimensions = dim }
}

// WithChunkSize overrides the indexing chunk size.
func WithChunkSize(size int) Option {
	return func(c *clientConfig) { c.chunkSize = size }
}

// WithRetrieval overrides the similarity threshold and match limit.
func WithRetrieval(threshold float64, limit int) Option {
	return func(c *clientConfig) {
		c.threshold = threshold
		c.limit = limit
	}
}

// WithXP overrides the mastered award and leaderboard size.
func WithXP(masteredAward int64, leaderboardSize int) Option {
	return func(c *clientConfig) {
		c.masteredAward = masteredAward
		c.leaderboardSize = leaderboardSize
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
