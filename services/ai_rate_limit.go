package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jiralite/jiralite_api/dto"
	"github.com/jiralite/jiralite_api/model"
	"github.com/jiralite/jiralite_api/shared"
)

// AIRateLimitService gates the AI assist endpoints with two per-user
// windows: a rolling minute and a rolling day. Window validity is
// recomputed on every call from the persisted row; denials never write.
type AIRateLimitService struct {
	context.DefaultService

	db  *gorm.DB
	now func() time.Time
}

const AI_RATE_LIMIT_SVC = "ai_rate_limit_svc"

const (
	minuteWindow = time.Minute
	dailyWindow  = 24 * time.Hour
)

func (svc AIRateLimitService) Id() string {
	return AI_RATE_LIMIT_SVC
}

func (svc *AIRateLimitService) Configure(ctx *context.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AIRateLimitService) Start() error {
	svc.db = svc.Service(POSTGRES_SVC).(*PostgresService).Db()
	return nil
}

// CheckAndConsume admits or rejects one AI request for userID. The daily
// window is checked before the minute window; an admitted call increments
// both counters in a single row write, a rejected call leaves the row
// untouched.
func (svc *AIRateLimitService) CheckAndConsume(userID string) (*dto.AIQuota, error) {
	now := svc.now()

	var rec model.AIRateLimit
	err := svc.db.Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		quota, created, err := svc.createRecord(userID, now)
		if err != nil || created {
			return quota, err
		}
		// Lost a creation race; reload and evaluate normally.
		if err := svc.db.Where("user_id = ?", userID).First(&rec).Error; err != nil {
			return nil, TranslateDBError(err)
		}
	} else if err != nil {
		return nil, TranslateDBError(err)
	}

	// Roll the windows in local variables only; nothing is persisted
	// unless the call is admitted.
	dailyCount := rec.DailyCount
	dailyReset := rec.DailyReset
	if !now.Before(dailyReset) {
		dailyCount = 0
		dailyReset = now.Add(dailyWindow)
	}

	if dailyCount >= shared.AIRequestsPerDay {
		recordAIRateLimited("daily")
		return &dto.AIQuota{
			Allowed: false,
			Reason: fmt.Sprintf("Daily AI limit of %d requests reached. The limit resets at %s.",
				shared.AIRequestsPerDay, dailyReset.UTC().Format(time.RFC3339)),
			MinuteRemaining: remaining(shared.AIRequestsPerMinute, rec.RequestCount),
			DailyRemaining:  0,
			DailyResetTime:  &dailyReset,
		}, nil
	}

	requestCount := rec.RequestCount
	windowStart := rec.WindowStart
	if now.Sub(windowStart) >= minuteWindow {
		requestCount = 0
		windowStart = now
	}

	if requestCount >= shared.AIRequestsPerMinute {
		recordAIRateLimited("minute")
		minuteReset := windowStart.Add(minuteWindow)
		return &dto.AIQuota{
			Allowed: false,
			Reason: fmt.Sprintf("AI request limit of %d per minute reached. Try again in a few seconds.",
				shared.AIRequestsPerMinute),
			MinuteRemaining: 0,
			DailyRemaining:  remaining(shared.AIRequestsPerDay, dailyCount),
			MinuteResetTime: &minuteReset,
		}, nil
	}

	updates := map[string]interface{}{
		"request_count": requestCount + 1,
		"window_start":  windowStart,
		"daily_count":   dailyCount + 1,
		"daily_reset":   dailyReset,
		"updated_at":    now,
	}
	if err := svc.db.Model(&model.AIRateLimit{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return nil, TranslateDBError(err)
	}

	minuteReset := windowStart.Add(minuteWindow)
	return &dto.AIQuota{
		Allowed:         true,
		MinuteRemaining: remaining(shared.AIRequestsPerMinute, requestCount+1),
		DailyRemaining:  remaining(shared.AIRequestsPerDay, dailyCount+1),
		MinuteResetTime: &minuteReset,
		DailyResetTime:  &dailyReset,
	}, nil
}

// createRecord inserts the first quota row for a user; the creating call
// itself consumes one unit of both windows. Returns created=false when a
// concurrent request inserted the row first.
func (svc *AIRateLimitService) createRecord(userID string, now time.Time) (*dto.AIQuota, bool, error) {
	rec := model.AIRateLimit{
		UserID:       userID,
		RequestCount: 1,
		WindowStart:  now,
		DailyCount:   1,
		DailyReset:   now.Add(dailyWindow),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res := svc.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return nil, false, TranslateDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}

	log.WithField("user_id", userID).Debug("Created AI rate limit record")

	minuteReset := now.Add(minuteWindow)
	dailyReset := rec.DailyReset
	return &dto.AIQuota{
		Allowed:         true,
		MinuteRemaining: shared.AIRequestsPerMinute - 1,
		DailyRemaining:  shared.AIRequestsPerDay - 1,
		MinuteResetTime: &minuteReset,
		DailyResetTime:  &dailyReset,
	}, true, nil
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}
