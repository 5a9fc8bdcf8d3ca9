package services

import (
	"context"
	"strconv"
	"testing"

	"lms/models"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardPointsAccumulates(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	g := NewGamification(db, nil, newTestLogger())
	ctx := context.Background()

	require.NoError(t, g.AwardPoints(ctx, user.ID, 10, "lesson"))
	require.NoError(t, g.AwardPoints(ctx, user.ID, 25, "quiz"))

	assert.Equal(t, 35, userPoints(t, db, user.ID))
}

func TestAwardPointsZeroAmountIsNoOp(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	g := NewGamification(db, nil, newTestLogger())

	require.NoError(t, g.AwardPoints(context.Background(), user.ID, 0, "nothing"))
	assert.Equal(t, 0, userPoints(t, db, user.ID))
}

func TestAwardPointsUnknownUser(t *testing.T) {
	db := newTestDB(t)
	g := NewGamification(db, nil, newTestLogger())

	err := g.AwardPoints(context.Background(), 999, 10, "lesson")
	require.Error(t, err)
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindNotFound, domainErr.Kind)
}

func TestAwardBadgeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	g := NewGamification(db, nil, newTestLogger())
	ctx := context.Background()

	newly, err := g.AwardBadge(ctx, user.ID, BadgeFirstQuizPassed)
	require.NoError(t, err)
	assert.True(t, newly)

	newly, err = g.AwardBadge(ctx, user.ID, BadgeFirstQuizPassed)
	require.NoError(t, err)
	assert.False(t, newly)

	ids, err := g.UserBadgeIDs(user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{BadgeFirstQuizPassed}, ids)
}

func TestAwardBadgeUnknownIDIsIgnored(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	g := NewGamification(db, nil, newTestLogger())

	newly, err := g.AwardBadge(context.Background(), user.ID, "no-such-badge")
	require.NoError(t, err)
	assert.False(t, newly)

	ids, err := g.UserBadgeIDs(user.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestForgetUserClearsLeaderboardEntry(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	g := NewGamification(db, rdb, newTestLogger())
	ctx := context.Background()
	require.NoError(t, g.AwardPoints(ctx, alice.ID, 50, "quiz"))
	require.NoError(t, g.AwardPoints(ctx, bob.ID, 10, "lesson"))

	g.ForgetUser(ctx, alice.ID)

	members, err := rdb.ZRange(ctx, leaderboardKey, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{strconv.FormatUint(uint64(bob.ID), 10)}, members)
}

func TestForgetUserWithoutRedisIsNoOp(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	g := NewGamification(db, nil, newTestLogger())

	g.ForgetUser(context.Background(), alice.ID)
}

func TestBadgeCatalog(t *testing.T) {
	badge, ok := BadgeByID(BadgePerfectScore)
	require.True(t, ok)
	assert.Equal(t, "Flawless Victory", badge.Name)

	_, ok = BadgeByID("nope")
	assert.False(t, ok)

	assert.Len(t, BadgeDefinitions(), 4)
}
