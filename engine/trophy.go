package engine

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/models"
)

// applyTrophyDeltaTx appends a ledger transaction and moves the cached
// total by the exact delta, inside the caller's DB transaction. The cached
// value on the user row must never be touched anywhere else.
func applyTrophyDeltaTx(tx *gorm.DB, userID uint, delta int, reason string, uploadID, challengeID *uint) error {
	if delta == 0 {
		return nil
	}

	var user models.User
	err := lockForUpdate(tx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	record := models.TrophyTransaction{
		UserID:      userID,
		UploadID:    uploadID,
		ChallengeID: challengeID,
		Delta:       delta,
		Reason:      reason,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("append trophy transaction: %w", err)
	}

	user.Trophies += delta
	if err := tx.Save(&user).Error; err != nil {
		return fmt.Errorf("update cached trophies: %w", err)
	}
	return nil
}

// TrophyTotal returns the ledger sum for a user; used by tests and the
// reconciliation admin view to cross-check the cached value.
func (e *Engine) TrophyTotal(userID uint) (int, error) {
	var total int
	err := e.db.Model(&models.TrophyTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum trophy ledger: %w", err)
	}
	return total, nil
}

// ListTrophyTransactions returns the user's ledger newest first.
func (e *Engine) ListTrophyTransactions(userID uint, limit int) ([]models.TrophyTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.TrophyTransaction
	err := e.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list trophy transactions: %w", err)
	}
	return rows, nil
}
