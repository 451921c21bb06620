package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/models"
)

// CreateUpload records a pending proof-of-activity for the given calendar
// day. The (user, date) pair must not already be covered by an upload or a
// rest day; the check and the insert share one transaction so concurrent
// attempts cannot both pass. Dates in the future are rejected.
func (e *Engine) CreateUpload(userID uint, day time.Time, photoReference, caption string) (*models.Upload, error) {
	if strings.TrimSpace(photoReference) == "" {
		return nil, fmt.Errorf("%w: photo reference is required", ErrValidation)
	}
	day = DateOf(day)
	today := e.Today()
	if day.After(today) {
		return nil, fmt.Errorf("%w: upload date %s is in the future", ErrValidation, day.Format(DateLayout))
	}

	var up models.Upload
	err := e.db.Transaction(func(tx *gorm.DB) error {
		covered, err := dayCovered(tx, userID, day)
		if err != nil {
			return err
		}
		if covered {
			return ErrDayAlreadyCovered
		}

		ch, err := getOrCreateActiveChallengeTx(tx, userID, today)
		if err != nil {
			return err
		}

		up = models.Upload{
			UserID:         userID,
			ChallengeID:    ch.ID,
			UploadDate:     day,
			PhotoReference: strings.TrimSpace(photoReference),
			Caption:        strings.TrimSpace(caption),
			Status:         models.UploadStatusPending,
		}
		if err := tx.Create(&up).Error; err != nil {
			return fmt.Errorf("create upload: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// dayCovered reports whether any upload (any status) or rest day already
// claims the date for the user. A pending upload counts: the day is spoken
// for until verification decides otherwise.
func dayCovered(tx *gorm.DB, userID uint, day time.Time) (bool, error) {
	var n int64
	if err := tx.Model(&models.Upload{}).
		Where("user_id = ? AND upload_date = ?", userID, day).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("count uploads for date: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	if err := tx.Model(&models.RestDay{}).
		Where("user_id = ? AND rest_date = ?", userID, day).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("count rest days for date: %w", err)
	}
	return n > 0, nil
}

// ListUserUploads returns the user's uploads, newest day first.
func (e *Engine) ListUserUploads(userID uint, limit int) ([]models.Upload, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var uploads []models.Upload
	err := e.db.Where("user_id = ?", userID).
		Order("upload_date DESC").
		Limit(limit).
		Find(&uploads).Error
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, nil
}

// ListPendingUploads returns the verification queue, oldest day first so
// administrators clear the backlog in order.
func (e *Engine) ListPendingUploads(limit int) ([]models.Upload, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var uploads []models.Upload
	err := e.db.Where("status = ?", models.UploadStatusPending).
		Order("upload_date ASC").
		Limit(limit).
		Find(&uploads).Error
	if err != nil {
		return nil, fmt.Errorf("list pending uploads: %w", err)
	}
	return uploads, nil
}

// GetUpload fetches a single upload.
func (e *Engine) GetUpload(uploadID uint) (*models.Upload, error) {
	var up models.Upload
	err := e.db.First(&up, uploadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUploadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return &up, nil
}
