package redis

import (
	"context"

	"github.com/examdeck/examdeck/internal/db"
)

// ZAdd adds or updates a sorted-set member with the given score.
func (s *Store) ZAdd(ctx context.Context, key, member string, score float64) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZIncrBy atomically increments a member's score and returns the new score.
func (s *Store) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	cmd := s.b().Zincrby().Key(key).Increment(delta).Member(member).Build()
	score, err := s.do(ctx, cmd).AsFloat64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZIncrBy, Err: err}
	}
	return score, nil
}

// ZRem removes members from a sorted set.
func (s *Store) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zrem().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}

// ZRevRange returns up to limit members ordered by descending score.
func (s *Store) ZRevRange(ctx context.Context, key string, limit int) ([]db.ScoredMember, error) {
	if limit <= 0 {
		return nil, nil
	}
	cmd := s.b().Zrevrange().Key(key).Start(0).Stop(int64(limit - 1)).Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}

	members := make([]db.ScoredMember, len(scores))
	for i, zs := range scores {
		members[i] = db.ScoredMember{Member: zs.Member, Score: zs.Score}
	}
	return members, nil
}
