package models

import "time"

// Trophy transaction reasons kept as a complete audit trail, including
// manual admin overrides.
const (
	TrophyReasonVerifiedUpload    = "verified_upload"
	TrophyReasonRejectionReversal = "rejection_reversal"
	TrophyReasonWeeklyBonus       = "weekly_bonus"
	TrophyReasonAdminSet          = "admin_set"
)

// TrophyTransaction is an append-only ledger entry. The cached total on the
// user row always equals the sum of that user's deltas; both are written in
// the same DB transaction. ChallengeID on a weekly_bonus row is the
// exactly-once guard for bonus payouts.
type TrophyTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	UploadID    *uint     `gorm:"index" json:"upload_id,omitempty"`
	ChallengeID *uint     `gorm:"index" json:"challenge_id,omitempty"`
	Delta       int       `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"size:32;not null;index" json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}
