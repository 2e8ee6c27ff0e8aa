// Package user persists student records and the XP leaderboard.
package user

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/domain"
)

// store is the consumer interface for user records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error)
	ZRevRange(ctx context.Context, key string, limit int) ([]db.ScoredMember, error)
}

// Repo implements usecase/student.UserRepository.
type Repo struct {
	store store
}

// New creates a user repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert returns the user for email, creating the record on first login.
// The display name defaults to the local part of the email.
func (r *Repo) Upsert(ctx context.Context, email string) (domain.User, error) {
	key := domain.UserKey(email)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return domain.User{}, fmt.Errorf("check user %s: %w", email, err)
	}

	if exists {
		return r.Get(ctx, email)
	}

	u := domain.User{
		Email:     email,
		FullName:  localPart(email),
		XP:        0,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.store.HSet(ctx, key, map[string]string{
		"email":      u.Email,
		"full_name":  u.FullName,
		"xp":         "0",
		"created_at": strconv.FormatInt(u.CreatedAt.UnixMilli(), 10),
	}); err != nil {
		return domain.User{}, fmt.Errorf("create user %s: %w", email, err)
	}

	if err := r.store.ZAdd(ctx, domain.LeaderboardKey, email, 0); err != nil {
		return domain.User{}, fmt.Errorf("register on leaderboard %s: %w", email, err)
	}

	return u, nil
}

// Get returns a user by email.
func (r *Repo) Get(ctx context.Context, email string) (domain.User, error) {
	fields, err := r.store.HGetAll(ctx, domain.UserKey(email))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	if len(fields) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return parseUser(fields), nil
}

// AddXP awards XP to a user and mirrors the new total on the leaderboard.
// Returns the new XP total. Awards are additive only.
func (r *Repo) AddXP(ctx context.Context, email string, amount int64) (int64, error) {
	key := domain.UserKey(email)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("check user %s: %w", email, err)
	}
	if !exists {
		return 0, domain.ErrUserNotFound
	}

	total, err := r.store.HIncrBy(ctx, key, "xp", amount)
	if err != nil {
		return 0, fmt.Errorf("award xp %s: %w", email, err)
	}

	if _, err := r.store.ZIncrBy(ctx, domain.LeaderboardKey, email, float64(amount)); err != nil {
		return 0, fmt.Errorf("update leaderboard %s: %w", email, err)
	}

	return total, nil
}

// TopByXP returns up to limit users ordered by descending XP,
// recomputed fresh on every call.
func (r *Repo) TopByXP(ctx context.Context, limit int) ([]domain.User, error) {
	members, err := r.store.ZRevRange(ctx, domain.LeaderboardKey, limit)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = domain.UserKey(m.Member)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard users: %w", err)
	}

	users := make([]domain.User, 0, len(hashes))
	for i, fields := range hashes {
		if len(fields) == 0 {
			// Leaderboard entry without a user hash; skip rather than fail.
			continue
		}
		u := parseUser(filled(fields, "email", members[i].Member))
		users = append(users, u)
	}
	return users, nil
}

func parseUser(fields map[string]string) domain.User {
	u := domain.User{
		Email:    fields["email"],
		FullName: fields["full_name"],
	}
	if v, err := strconv.ParseInt(fields["xp"], 10, 64); err == nil {
		u.XP = v
	}
	if ms, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		u.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return u
}

func filled(fields map[string]string, key, fallback string) map[string]string {
	if fields[key] == "" {
		fields[key] = fallback
	}
	return fields
}

func localPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
