// Package session keeps in-memory login sessions and their chat transcripts.
// Sessions do not survive a process restart; clients log in again.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/domain"
)

// Session ties a logged-in student to an ordered chat transcript.
type Session struct {
	ID        string
	Email     string
	CreatedAt time.Time

	mu       sync.Mutex
	messages []domain.Message
}

// Append adds a message to the end of the transcript.
func (s *Session) Append(role domain.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, domain.Message{
		Role:    role,
		Content: content,
		SentAt:  time.Now().UTC(),
	})
}

// Transcript returns a copy of the messages in send order.
func (s *Session) Transcript() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Registry holds live sessions keyed by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create opens a new session for the given user and returns it.
func (r *Registry) Create(email string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s
}

// Get returns the session for id, or domain.ErrSessionNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Delete discards the session and its transcript.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}
