package models

import "time"

// RollupRun is the idempotency marker for the nightly rollup: one row per
// calendar date. A retried cron invocation that finds today's row performs
// no work.
type RollupRun struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RunDate        time.Time `gorm:"type:date;not null;uniqueIndex" json:"run_date"`
	UsersProcessed int       `gorm:"default:0" json:"users_processed"`
	AutoApproved   int       `gorm:"default:0" json:"auto_approved"`
	BonusesAwarded int       `gorm:"default:0" json:"bonuses_awarded"`
	FailureCount   int       `gorm:"default:0" json:"failure_count"`
	Failures       string    `gorm:"type:text" json:"failures,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
