package user

import (
	"context"
	"errors"
	"testing"

	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/domain"
)

// --- Upsert ---

func TestUpsert_NewUser(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var hsetKey string
	var zaddScore float64 = -1
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		hsetKey = key
		if fields["email"] != "ada@example.com" {
			t.Errorf("unexpected email field: %s", fields["email"])
		}
		if fields["full_name"] != "ada" {
			t.Errorf("expected local part as full_name, got %s", fields["full_name"])
		}
		if fields["xp"] != "0" {
			t.Errorf("expected xp 0, got %s", fields["xp"])
		}
		return nil
	}
	ms.zaddFn = func(_ context.Context, key, member string, score float64) error {
		if key != domain.LeaderboardKey {
			t.Errorf("unexpected zset key: %s", key)
		}
		if member != "ada@example.com" {
			t.Errorf("unexpected member: %s", member)
		}
		zaddScore = score
		return nil
	}

	u, err := repo.Upsert(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hsetKey != "examdeck:user:ada@example.com" {
		t.Errorf("unexpected hash key: %s", hsetKey)
	}
	if u.XP != 0 {
		t.Errorf("expected zero XP, got %d", u.XP)
	}
	if zaddScore != 0 {
		t.Errorf("expected leaderboard seed score 0, got %f", zaddScore)
	}
}

func TestUpsert_ExistingUserKeepsXP(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var hsetCalled bool
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		hsetCalled = true
		return nil
	}
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{
			"email":     "ada@example.com",
			"full_name": "ada",
			"xp":        "300",
		}, nil
	}

	u, err := repo.Upsert(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hsetCalled {
		t.Error("re-login must not rewrite the user hash")
	}
	if u.XP != 300 {
		t.Errorf("expected XP 300, got %d", u.XP)
	}
}

// --- Get ---

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	_, err := repo.Get(context.Background(), "ghost@example.com")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// --- AddXP ---

func TestAddXP_AwardsAndMirrors(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var zincrDelta float64
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.hincrByFn = func(_ context.Context, _, field string, delta int64) (int64, error) {
		if field != "xp" {
			t.Errorf("unexpected field: %s", field)
		}
		return 100 + delta, nil
	}
	ms.zincrByFn = func(_ context.Context, key, _ string, delta float64) (float64, error) {
		if key != domain.LeaderboardKey {
			t.Errorf("unexpected zset key: %s", key)
		}
		zincrDelta = delta
		return 0, nil
	}

	total, err := repo.AddXP(ctx, "ada@example.com", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 200 {
		t.Errorf("expected new total 200, got %d", total)
	}
	if zincrDelta != 100 {
		t.Errorf("expected leaderboard delta 100, got %f", zincrDelta)
	}
}

func TestAddXP_UnknownUser(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	_, err := repo.AddXP(context.Background(), "ghost@example.com", 100)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// --- TopByXP ---

func TestTopByXP_OrderPreserved(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.zrevRangeFn = func(_ context.Context, _ string, limit int) ([]db.ScoredMember, error) {
		if limit != 10 {
			t.Errorf("unexpected limit: %d", limit)
		}
		return []db.ScoredMember{
			{Member: "first@example.com", Score: 300},
			{Member: "second@example.com", Score: 100},
		}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if len(keys) != 2 {
			t.Fatalf("expected 2 keys, got %d", len(keys))
		}
		return []map[string]string{
			{"email": "first@example.com", "full_name": "first", "xp": "300"},
			{"email": "second@example.com", "full_name": "second", "xp": "100"},
		}, nil
	}

	users, err := repo.TopByXP(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Email != "first@example.com" || users[0].XP != 300 {
		t.Errorf("unexpected first entry: %+v", users[0])
	}
	if users[1].Email != "second@example.com" || users[1].XP != 100 {
		t.Errorf("unexpected second entry: %+v", users[1])
	}
}

func TestTopByXP_SkipsDanglingEntries(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.zrevRangeFn = func(_ context.Context, _ string, _ int) ([]db.ScoredMember, error) {
		return []db.ScoredMember{
			{Member: "kept@example.com", Score: 100},
			{Member: "dangling@example.com", Score: 50},
		}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{
			{"email": "kept@example.com", "xp": "100"},
			{},
		}, nil
	}

	users, err := repo.TopByXP(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Email != "kept@example.com" {
		t.Errorf("unexpected user: %+v", users[0])
	}
}

func TestTopByXP_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)

	users, err := repo.TopByXP(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty leaderboard, got %d users", len(users))
	}
}
