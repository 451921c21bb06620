package models

import "time"

// Weekly challenge statuses. A challenge leaves active exactly once, at
// rollover, and terminal rows are never re-evaluated.
const (
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
	ChallengeStatusFailed    = "failed"
)

// WeeklyChallenge is a per-user 7-day accounting window. CompletedDays is
// always recomputed from the upload and rest-day ledgers inside the window,
// never incremented in place.
type WeeklyChallenge struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"index;not null" json:"user_id"`
	StartDate         time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate           time.Time `gorm:"type:date;not null" json:"end_date"`
	CompletedDays     int       `gorm:"default:0" json:"completed_days"`
	RestDaysAvailable int       `gorm:"default:3" json:"rest_days_available"`
	Status            string    `gorm:"size:16;not null;default:active;index" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Covers reports whether day falls inside the challenge window (inclusive).
func (c *WeeklyChallenge) Covers(day time.Time) bool {
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}
