package domain

import "time"

// Status is the processing state of an uploaded document.
type Status string

const (
	// StatusPending marks a document that has been received but not stored yet.
	StatusPending Status = "pending"
	// StatusCompleted marks a document whose raw text is stored.
	StatusCompleted Status = "completed"
	// StatusAnalyzed marks a document with a stored analysis report.
	StatusAnalyzed Status = "analyzed"
)

// User is a student identified by email. Created on first login (login is
// also registration), never deleted.
type User struct {
	Email     string
	FullName  string
	XP        int64
	CreatedAt time.Time
}

// Document is an uploaded exam paper keyed by the content hash of its
// extracted text. Identical text under different filenames maps to one record.
type Document struct {
	Hash      string
	FileName  string
	Text      string
	Status    Status
	Analysis  string
	CreatedAt time.Time
}

// Section is a fixed-size slice of a document's text with its embedding.
// The full set for a document is replaced as a unit on re-indexing.
type Section struct {
	DocumentHash string
	Ordinal      int
	Content      string
	Vector       []float32
}

// Match is a section returned by similarity search.
type Match struct {
	DocumentHash string
	Ordinal      int
	Content      string
	Similarity   float64
}

// Role identifies the author of a transcript message.
type Role string

const (
	// RoleUser marks a student question.
	RoleUser Role = "user"
	// RoleAssistant marks a generated answer.
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session's ordered chat transcript.
type Message struct {
	Role    Role
	Content string
	SentAt  time.Time
}
