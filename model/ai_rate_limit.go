package model

import "time"

// AIRateLimit is the single per-user quota row behind the AI assist
// endpoints. Both windows are evaluated lazily at request time; there is no
// background sweeper. The daily window rolls 24h from the first request (or
// the last reset), not from calendar midnight.
type AIRateLimit struct {
	UserID       string    `gorm:"primaryKey;type:text;not null"`
	RequestCount int       `gorm:"default:0;not null"`
	WindowStart  time.Time `gorm:"not null"`
	DailyCount   int       `gorm:"default:0;not null"`
	DailyReset   time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
