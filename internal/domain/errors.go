package domain

import "errors"

var (
	// ErrExtraction signals an unreadable or unparseable document payload.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmbeddingUnavailable signals an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrGeneration signals a chat/analysis provider failure.
	ErrGeneration = errors.New("generation failed")
	// ErrNoRelevantSections signals that no section cleared the similarity threshold.
	ErrNoRelevantSections = errors.New("no relevant sections found")
	// ErrDocumentNotFound signals a missing document record.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUserNotFound signals a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound signals an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyDocument signals a document whose extracted text is empty.
	ErrEmptyDocument = errors.New("document has no extractable text")
)
