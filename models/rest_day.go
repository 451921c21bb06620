package models

import "time"

// RestDay records a user-elected skip: the date counts as satisfied without
// an upload. Rows are never deleted; each one consumed a unit from the
// owning challenge's allowance at creation time.
type RestDay struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:uniq_user_rest_date" json:"user_id"`
	ChallengeID uint      `gorm:"index;not null" json:"challenge_id"`
	RestDate    time.Time `gorm:"type:date;not null;uniqueIndex:uniq_user_rest_date" json:"rest_date"`
	CreatedAt   time.Time `json:"created_at"`
}
