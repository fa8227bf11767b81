package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jiralite/jiralite_api/model"
	"github.com/jiralite/jiralite_api/shared"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(Models()...))

	return db
}

type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time          { return c.current }
func (c *testClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newRateLimitService(t *testing.T) (*AIRateLimitService, *testClock) {
	t.Helper()

	clock := &testClock{current: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	svc := &AIRateLimitService{
		db:  newTestDB(t),
		now: clock.Now,
	}
	return svc, clock
}

func loadRecord(t *testing.T, db *gorm.DB, userID string) model.AIRateLimit {
	t.Helper()

	var rec model.AIRateLimit
	require.NoError(t, db.Where("user_id = ?", userID).First(&rec).Error)
	return rec
}

func TestCheckAndConsume_FirstRequestCreatesRecord(t *testing.T) {
	svc, clock := newRateLimitService(t)

	quota, err := svc.CheckAndConsume("user-1")
	require.NoError(t, err)

	assert.True(t, quota.Allowed)
	assert.Equal(t, shared.AIRequestsPerMinute-1, quota.MinuteRemaining)
	assert.Equal(t, shared.AIRequestsPerDay-1, quota.DailyRemaining)

	rec := loadRecord(t, svc.db, "user-1")
	assert.Equal(t, 1, rec.RequestCount)
	assert.Equal(t, 1, rec.DailyCount)
	assert.True(t, rec.WindowStart.Equal(clock.current))
	assert.True(t, rec.DailyReset.Equal(clock.current.Add(24*time.Hour)))
}

func TestCheckAndConsume_MinuteLimitExhausted(t *testing.T) {
	svc, _ := newRateLimitService(t)

	for i := 0; i < shared.AIRequestsPerMinute; i++ {
		quota, err := svc.CheckAndConsume("user-1")
		require.NoError(t, err)
		require.True(t, quota.Allowed, "request %d should be admitted", i+1)
	}

	quota, err := svc.CheckAndConsume("user-1")
	require.NoError(t, err)

	assert.False(t, quota.Allowed)
	assert.Contains(t, quota.Reason, "per minute")
	assert.Equal(t, 0, quota.MinuteRemaining)
	assert.Equal(t, shared.AIRequestsPerDay-shared.AIRequestsPerMinute, quota.DailyRemaining)
	require.NotNil(t, quota.MinuteResetTime)
}

func TestCheckAndConsume_DenialDoesNotWrite(t *testing.T) {
	svc, _ := newRateLimitService(t)

	for i := 0; i < shared.AIRequestsPerMinute; i++ {
		_, err := svc.CheckAndConsume("user-1")
		require.NoError(t, err)
	}
	before := loadRecord(t, svc.db, "user-1")

	for i := 0; i < 5; i++ {
		quota, err := svc.CheckAndConsume("user-1")
		require.NoError(t, err)
		require.False(t, quota.Allowed)
	}

	after := loadRecord(t, svc.db, "user-1")
	assert.Equal(t, before.RequestCount, after.RequestCount)
	assert.Equal(t, before.DailyCount, after.DailyCount)
	assert.True(t, before.WindowStart.Equal(after.WindowStart))
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestCheckAndConsume_MinuteWindowRollsOver(t *testing.T) {
	svc, clock := newRateLimitService(t)

	for i := 0; i < shared.AIRequestsPerMinute; i++ {
		_, err := svc.CheckAndConsume("user-1")
		require.NoError(t, err)
	}

	quota, err := svc.CheckAndConsume("user-1")
	require.NoError(t, err)
	require.False(t, quota.Allowed)

	clock.Advance(61 * time.Second)

	quota, err = svc.CheckAndConsume("user-1")
	require.NoError(t, err)
	assert.True(t, quota.Allowed)
	assert.Equal(t, shared.AIRequestsPerMinute-1, quota.MinuteRemaining)

	rec := loadRecord(t, svc.db, "user-1")
	assert.Equal(t, 1, rec.RequestCount)
	assert.True(t, rec.WindowStart.Equal(clock.current))
	assert.Equal(t, shared.AIRequestsPerMinute+1, rec.DailyCount)
}

func TestCheckAndConsume_DailyLimitExhausted(t *testing.T) {
	svc, clock := newRateLimitService(t)

	dailyReset := clock.current.Add(6 * time.Hour)
	require.NoError(t, svc.db.Create(&model.AIRateLimit{
		UserID:       "user-1",
		RequestCount: 0,
		WindowStart:  clock.current.Add(-2 * time.Minute),
		DailyCount:   shared.AIRequestsPerDay,
		DailyReset:   dailyReset,
		CreatedAt:    clock.current.Add(-20 * time.Hour),
		UpdatedAt:    clock.current.Add(-time.Hour),
	}).Error)

	quota, err := svc.CheckAndConsume("user-1")
	require.NoError(t, err)

	assert.False(t, quota.Allowed)
	assert.Contains(t, quota.Reason, fmt.Sprintf("Daily AI limit of %d", shared.AIRequestsPerDay))
	assert.Contains(t, quota.Reason, dailyReset.UTC().Format(time.RFC3339))
	assert.Equal(t, 0, quota.DailyRemaining)

	rec := loadRecord(t, svc.db, "user-1")
	assert.Equal(t, shared.AIRequestsPerDay, rec.DailyCount)
}

func TestCheckAndConsume_DailyCheckedBeforeMinute(t *testing.T) {
	svc, clock := newRateLimitService(t)

	require.NoError(t, svc.db.Create(&model.AIRateLimit{
		UserID:       "user-1",
		RequestCount: shared.AIRequestsPerMinute,
		WindowStart:  clock.current,
		DailyCount:   shared.AIRequestsPerDay,
		DailyReset:   clock.current.Add(6 * time.Hour),
		CreatedAt:    clock.current,
		UpdatedAt:    clock.current,
	}).Error)

	quota, err := svc.CheckAndConsume("user-1")
	require.NoError(t, err)

	assert.False(t, quota.Allowed)
	assert.Contains(t, quota.Reason, "Daily AI limit")
}

func TestCheckAndConsume_DailyWindowRollsOver(t *testing.T) {
	svc, clock := newRateLimitService(t)

	require.NoError(t, svc.db.Create(&model.AIRateLimit{
		UserID:       "user-1",
		RequestCount: 0,
		WindowStart:  clock.current.Add(-25 * time.Hour),
		DailyCount:   shared.AIRequestsPerDay,
		DailyReset:   clock.current.Add(-time.Hour),
		CreatedAt:    clock.current.Add(-26 * time.Hour),
		UpdatedAt:    clock.current.Add(-25 * time.Hour),
	}).Error)

	quota, err := svc.CheckAndConsume("user-1")
	require.NoError(t, err)

	assert.True(t, quota.Allowed)
	assert.Equal(t, shared.AIRequestsPerDay-1, quota.DailyRemaining)

	rec := loadRecord(t, svc.db, "user-1")
	assert.Equal(t, 1, rec.DailyCount)
	assert.True(t, rec.DailyReset.Equal(clock.current.Add(24*time.Hour)))
}

func TestCheckAndConsume_UsersAreIndependent(t *testing.T) {
	svc, _ := newRateLimitService(t)

	for i := 0; i < shared.AIRequestsPerMinute; i++ {
		_, err := svc.CheckAndConsume("user-1")
		require.NoError(t, err)
	}

	quota, err := svc.CheckAndConsume("user-1")
	require.NoError(t, err)
	require.False(t, quota.Allowed)

	quota, err = svc.CheckAndConsume("user-2")
	require.NoError(t, err)
	assert.True(t, quota.Allowed)
	assert.Equal(t, shared.AIRequestsPerMinute-1, quota.MinuteRemaining)
}
