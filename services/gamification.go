package services

import (
	"context"
	"log"
	"strconv"

	"lms/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Point amounts per event kind.
const (
	PointsLessonComplete   = 10
	PointsQuizPass         = 25 // score >= 50%
	PointsQuizPerfect      = 50 // score = 100%, stacks with the pass bonus
	PointsAssignmentSubmit = 30 // first submission per module only
	PointsForumPost        = 5  // first post only
	PointsCourseCertified  = 100

	QuizPassPercent = 50.0
)

// Badge identifiers. The catalog below is static reference data, not user
// state; earned badges are UserBadge rows.
const (
	BadgeFirstQuizPassed = "quiz-pass-1"
	BadgePerfectScore    = "quiz-perfect-1"
	BadgeFirstForumPost  = "forum-post-1"
	BadgeCourseCS101     = "cert-cs101"
)

type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var badgeCatalog = []Badge{
	{ID: BadgeCourseCS101, Name: "CS101 Graduate", Description: "Completed Introduction to Computer Science", Icon: "🎓"},
	{ID: BadgeFirstQuizPassed, Name: "Quiz Master Initiate", Description: "Passed your first quiz!", Icon: "✅"},
	{ID: BadgeFirstForumPost, Name: "Community Contributor", Description: "Made your first forum post!", Icon: "💬"},
	{ID: BadgePerfectScore, Name: "Flawless Victory", Description: "Achieved a perfect score on a quiz!", Icon: "🎯"},
}

// BadgeDefinitions returns the static badge catalog.
func BadgeDefinitions() []Badge {
	out := make([]Badge, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}

// BadgeByID looks a badge up in the catalog.
func BadgeByID(id string) (Badge, bool) {
	for _, b := range badgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

const leaderboardKey = "lms:leaderboard"

// Gamification is the points & badges ledger. It is the only code allowed to
// mutate User.Points and UserBadge rows.
type Gamification struct {
	DB  *gorm.DB
	RDB *redis.Client // optional leaderboard mirror
	Log *log.Logger
}

func NewGamification(db *gorm.DB, rdb *redis.Client, logger *log.Logger) *Gamification {
	return &Gamification{DB: db, RDB: rdb, Log: logger}
}

// AwardPoints adds amount to the user's point total. The increment is a
// single "points = points + ?" column update so concurrent awards to the same
// user cannot lose updates. Amounts <= 0 are a no-op.
func (g *Gamification) AwardPoints(ctx context.Context, userID uint, amount int, reason string) error {
	if amount <= 0 {
		return nil
	}

	result := g.DB.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NotFoundErr("user", userID)
	}

	g.Log.Printf("[gamification] user %d awarded %d points for: %s", userID, amount, reason)

	// Best-effort mirror; the users table stays the source of truth.
	if g.RDB != nil {
		member := strconv.FormatUint(uint64(userID), 10)
		if err := g.RDB.ZIncrBy(ctx, leaderboardKey, float64(amount), member).Err(); err != nil {
			g.Log.Printf("[gamification] leaderboard mirror update failed for user %d: %v", userID, err)
		}
	}

	return nil
}

// AwardBadge grants badgeID to the user if absent. The insert relies on the
// unique (user, badge) index with ON CONFLICT DO NOTHING, so the grant is
// idempotent under concurrency. Returns whether the badge was newly added.
func (g *Gamification) AwardBadge(ctx context.Context, userID uint, badgeID string) (bool, error) {
	badge, ok := BadgeByID(badgeID)
	if !ok {
		g.Log.Printf("[gamification] attempted to award unknown badge id: %s", badgeID)
		return false, nil
	}

	result := g.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserBadge{UserID: userID, BadgeID: badgeID})
	if result.Error != nil {
		return false, result.Error
	}

	newlyAwarded := result.RowsAffected > 0
	if newlyAwarded {
		g.Log.Printf("[gamification] user %d newly awarded badge %q (%s)", userID, badge.Name, badgeID)
	}
	return newlyAwarded, nil
}

// ForgetUser drops the user's leaderboard mirror entry. Best-effort like the
// mirror updates; SQL row cleanup is the caller's job.
func (g *Gamification) ForgetUser(ctx context.Context, userID uint) {
	if g.RDB == nil {
		return
	}
	member := strconv.FormatUint(uint64(userID), 10)
	if err := g.RDB.ZRem(ctx, leaderboardKey, member).Err(); err != nil {
		g.Log.Printf("[gamification] leaderboard mirror removal failed for user %d: %v", userID, err)
	}
}

// UserBadgeIDs returns the user's earned badge IDs.
func (g *Gamification) UserBadgeIDs(userID uint) ([]string, error) {
	var ids []string
	err := g.DB.Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	return ids, err
}
