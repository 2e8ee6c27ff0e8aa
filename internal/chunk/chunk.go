// Package chunk splits document text into fixed-size pieces for embedding.
package chunk

// DefaultSize is the default chunk length in characters.
const DefaultSize = 1000

// Splitter cuts text into contiguous, non-overlapping slices of at most
// Size characters. Splits are position-based: a chunk may end mid-word but
// never mid-rune. The last chunk may be shorter; concatenating all chunks
// reproduces the input exactly.
type Splitter struct {
	size int
}

// NewSplitter creates a Splitter. Non-positive sizes fall back to DefaultSize.
func NewSplitter(size int) *Splitter {
	if size <= 0 {
		size = DefaultSize
	}
	return &Splitter{size: size}
}

// Size returns the configured chunk length.
func (s *Splitter) Size() int { return s.size }

// Split returns the chunks of text in order. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	chunks := make([]string, 0, (len(text)+s.size-1)/s.size)
	start, count := 0, 0
	for i := range text {
		if count == s.size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, text[start:])
}
