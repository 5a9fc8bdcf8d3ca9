package services

import (
	"context"
	"log"
	"strconv"

	"lms/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LeaderboardEntry is one ranked row of the points leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// Leaderboard serves the top-N users by points. When a redis client is
// configured it reads the ZSET mirror maintained by Gamification; otherwise it
// falls back to ordering the users table directly.
type Leaderboard struct {
	DB  *gorm.DB
	RDB *redis.Client
	Log *log.Logger
}

func NewLeaderboard(db *gorm.DB, rdb *redis.Client, logger *log.Logger) *Leaderboard {
	return &Leaderboard{DB: db, RDB: rdb, Log: logger}
}

func (l *Leaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	if l.RDB != nil {
		entries, err := l.topFromRedis(ctx, limit)
		if err == nil {
			return entries, nil
		}
		l.Log.Printf("[leaderboard] redis read failed, falling back to sql: %v", err)
	}

	return l.topFromSQL(limit)
}

func (l *Leaderboard) topFromRedis(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	ranked, err := l.RDB.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(ranked))
	ids := make([]uint, 0, len(ranked))
	for _, z := range ranked {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
		entries = append(entries, LeaderboardEntry{
			UserID: uint(id),
			Points: int(z.Score),
		})
	}

	names, err := l.usernames(ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Username = names[entries[i].UserID]
	}
	return entries, nil
}

func (l *Leaderboard) topFromSQL(limit int) ([]LeaderboardEntry, error) {
	var users []models.User
	err := l.DB.Select("id", "username", "points").
		Where("points > 0").
		Order("points DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.Username,
			Points:   u.Points,
		})
	}
	return entries, nil
}

func (l *Leaderboard) usernames(ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}
	var users []models.User
	if err := l.DB.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
