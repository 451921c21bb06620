package models

import "time"

// Upload verification statuses. An upload is created pending and moves to a
// terminal status exactly once, through the engine's verification entry point.
const (
	UploadStatusPending  = "pending"
	UploadStatusApproved = "approved"
	UploadStatusRejected = "rejected"
)

// Upload stores one proof-of-activity photo per user per calendar day.
// PhotoReference is an opaque pointer into external storage; this service
// never touches image bytes.
type Upload struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;uniqueIndex:uniq_user_upload_date" json:"user_id"`
	ChallengeID    uint       `gorm:"index" json:"challenge_id"`
	UploadDate     time.Time  `gorm:"type:date;not null;uniqueIndex:uniq_user_upload_date" json:"upload_date"`
	PhotoReference string     `gorm:"size:512;not null" json:"photo_reference"`
	Caption        string     `gorm:"size:512" json:"caption"`
	Status         string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	VerifierID     *uint      `json:"verifier_id,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
