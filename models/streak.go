package models

import "time"

// Streak keeps one row per user with the derived current/longest values.
// The baseline triple, when BaselineStreak > 0, is an administrator-imposed
// floor: recomputation never yields values below it until the rollup lapses
// it (a genuine miss after BaselineDate) or an admin clears it.
// Invariant: LongestStreak >= CurrentStreak.
type Streak struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	CurrentStreak    int        `gorm:"default:0" json:"current_streak"`
	LongestStreak    int        `gorm:"default:0" json:"longest_streak"`
	LastActivityDate *time.Time `gorm:"type:date" json:"last_activity_date,omitempty"`
	BaselineDate     *time.Time `gorm:"type:date" json:"baseline_date,omitempty"`
	BaselineStreak   int        `gorm:"default:0" json:"baseline_streak"`
	BaselineLongest  int        `gorm:"default:0" json:"baseline_longest"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasBaseline reports whether an admin floor is currently in force.
func (s *Streak) HasBaseline() bool {
	return s.BaselineStreak > 0 && s.BaselineDate != nil
}
