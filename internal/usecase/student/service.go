// Package student handles login, XP awards, and the leaderboard.
package student

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/examdeck/examdeck/internal/domain"
	"github.com/examdeck/examdeck/internal/session"
)

// Service implements the student-facing account operations.
type Service struct {
	users    UserRepository
	docs     DocumentRepository
	sessions Sessions

	masteredAward   int64
	leaderboardSize int
	logger          *zap.Logger
}

// New creates a student service.
func New(
	users UserRepository, docs DocumentRepository, sessions Sessions,
	masteredAward int64, leaderboardSize int, logger *zap.Logger,
) *Service {
	return &Service{
		users:           users,
		docs:            docs,
		sessions:        sessions,
		masteredAward:   masteredAward,
		leaderboardSize: leaderboardSize,
		logger:          logger,
	}
}

// Login upserts the student record and opens a fresh session.
// No password: the portal trusts the email as identity.
func (s *Service) Login(ctx context.Context, email string) (domain.User, *session.Session, error) {
	u, err := s.users.Upsert(ctx, email)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("login %s: %w", email, err)
	}

	sess := s.sessions.Create(u.Email)

	s.logger.Info("Student logged in",
		zap.String("email", u.Email),
		zap.String("session_id", sess.ID))

	return u, sess, nil
}

// Logout discards the session and its transcript.
func (s *Service) Logout(id string) {
	s.sessions.Delete(id)
}

// MarkMastered awards the fixed XP amount for mastering a document and
// returns the student's new total. The award is not idempotent: pressing
// mastered twice awards twice.
func (s *Service) MarkMastered(ctx context.Context, email, hash string) (int64, error) {
	if _, err := s.docs.Get(ctx, hash); err != nil {
		return 0, fmt.Errorf("load document %s: %w", hash, err)
	}

	total, err := s.users.AddXP(ctx, email, s.masteredAward)
	if err != nil {
		return 0, fmt.Errorf("award xp %s: %w", email, err)
	}

	s.logger.Info("Document mastered",
		zap.String("email", email),
		zap.String("hash", hash),
		zap.Int64("xp_total", total))

	return total, nil
}

// Leaderboard returns the top students by XP, recomputed on every call.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.TopByXP(ctx, s.leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return users, nil
}
