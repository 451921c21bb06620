package engine

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/models"
)

// UseRestDay elects the date as satisfied without an upload, consuming one
// unit from the challenge's allowance. Fails with a domain error and no
// side effects when the date is already covered, the allowance is
// exhausted, or the date falls outside the challenge window.
func (e *Engine) UseRestDay(userID, challengeID uint, day time.Time) (*models.RestDay, error) {
	day = DateOf(day)
	today := e.Today()
	if day.After(today) {
		return nil, fmt.Errorf("%w: rest date %s is in the future", ErrValidation, day.Format(DateLayout))
	}

	var rd models.RestDay
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var ch models.WeeklyChallenge
		err := lockForUpdate(tx).
			Where("id = ? AND user_id = ?", challengeID, userID).
			First(&ch).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChallengeNotFound
		}
		if err != nil {
			return fmt.Errorf("lock challenge: %w", err)
		}
		if ch.Status != models.ChallengeStatusActive {
			return fmt.Errorf("%w: challenge is %s", ErrChallengeNotFound, ch.Status)
		}
		if !ch.Covers(day) {
			return fmt.Errorf("%w: %s is outside the challenge window", ErrValidation, day.Format(DateLayout))
		}

		covered, err := dayCovered(tx, userID, day)
		if err != nil {
			return err
		}
		if covered {
			return ErrDayAlreadyCovered
		}

		if ch.RestDaysAvailable <= 0 {
			return ErrNoRestDaysLeft
		}

		rd = models.RestDay{
			UserID:      userID,
			ChallengeID: ch.ID,
			RestDate:    day,
		}
		if err := tx.Create(&rd).Error; err != nil {
			return fmt.Errorf("create rest day: %w", err)
		}

		ch.RestDaysAvailable--
		if err := tx.Save(&ch).Error; err != nil {
			return fmt.Errorf("decrement rest allowance: %w", err)
		}

		if err := recomputeChallengeDaysTx(tx, &ch); err != nil {
			return err
		}
		if _, _, err := recomputeStreakTx(tx, userID, today, false); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.invalidateDashboard(userID)
	return &rd, nil
}
