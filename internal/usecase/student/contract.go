package student

import (
	"context"

	"github.com/examdeck/examdeck/internal/domain"
	"github.com/examdeck/examdeck/internal/session"
)

// UserRepository persists student records and XP totals.
type UserRepository interface {
	Upsert(ctx context.Context, email string) (domain.User, error)
	Get(ctx context.Context, email string) (domain.User, error)
	AddXP(ctx context.Context, email string, amount int64) (int64, error)
	TopByXP(ctx context.Context, limit int) ([]domain.User, error)
}

// DocumentRepository reads document records for existence checks.
type DocumentRepository interface {
	Get(ctx context.Context, hash string) (domain.Document, error)
}

// Sessions opens and closes login sessions.
type Sessions interface {
	Create(email string) *session.Session
	Delete(id string)
}
