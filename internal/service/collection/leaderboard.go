package collection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"geoclaim/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	LeaderboardKey   = "leaderboard"
	ProfileKeyPrefix = "profile"

	fieldTotal        = "total"
	fieldScore        = "score"
	fieldRarityPrefix = "rarity:"

	pointsPerLevel = 500
)

// LevelFor converts a score to a player level, starting at 1.
func LevelFor(score int64) int64 {
	if score < 0 {
		score = 0
	}
	return score/pointsPerLevel + 1
}

// Entry is one leaderboard row.
type Entry struct {
	Rank   int64  `json:"rank"`
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
	Level  int64  `json:"level"`
}

// Stats are the per-user counters kept next to the leaderboard.
type Stats struct {
	Total    int64                  `json:"total"`
	Score    int64                  `json:"score"`
	ByRarity map[model.Rarity]int64 `json:"by_rarity"`
}

// Leaderboard keeps scores in a sorted set and per-user counters in a hash.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func profileKey(userID string) string {
	return fmt.Sprintf("%s:%s", ProfileKeyPrefix, userID)
}

// Record adds one claimed item of the given rarity to userID's totals.
func (l *Leaderboard) Record(ctx context.Context, userID string, rarity model.Rarity) error {
	points := rarity.Points()
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		key := profileKey(userID)
		pipe.ZIncrBy(ctx, LeaderboardKey, float64(points), userID)
		pipe.HIncrBy(ctx, key, fieldTotal, 1)
		pipe.HIncrBy(ctx, key, fieldScore, points)
		pipe.HIncrBy(ctx, key, fieldRarityPrefix+string(rarity), 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

// Top returns the n best players, highest score first.
func (l *Leaderboard) Top(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	rows, err := l.client.ZRevRangeWithScores(ctx, LeaderboardKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for i, z := range rows {
		member, _ := z.Member.(string)
		score := int64(z.Score)
		entries = append(entries, Entry{
			Rank:   int64(i) + 1,
			UserID: member,
			Score:  score,
			Level:  LevelFor(score),
		})
	}
	return entries, nil
}

// Rank returns the 1-based position of userID, or false if unranked.
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int64, bool, error) {
	r, err := l.client.ZRevRank(ctx, LeaderboardKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read rank: %w", err)
	}
	return r + 1, true, nil
}

// Stats returns userID's counters. Unknown users get zero stats.
func (l *Leaderboard) Stats(ctx context.Context, userID string) (Stats, error) {
	fields, err := l.client.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}

	st := Stats{ByRarity: make(map[model.Rarity]int64, len(model.Rarities))}
	for _, r := range model.Rarities {
		st.ByRarity[r] = 0
	}
	for field, raw := range fields {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == fieldTotal:
			st.Total = v
		case field == fieldScore:
			st.Score = v
		case strings.HasPrefix(field, fieldRarityPrefix):
			st.ByRarity[model.Rarity(strings.TrimPrefix(field, fieldRarityPrefix))] = v
		}
	}
	return st, nil
}
