package engine

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/config"
	"github.com/dayproof/dayproof/models"
)

// recomputeChallengeDaysTx rebuilds completed_days as the count of distinct
// satisfied dates inside the challenge window. Never incremented ad hoc, so
// a rejection of a previously-approved day shrinks the count correctly.
func recomputeChallengeDaysTx(tx *gorm.DB, ch *models.WeeklyChallenge) error {
	dates, err := satisfiedDates(tx, ch.UserID)
	if err != nil {
		return err
	}

	count := 0
	for _, d := range dates {
		if ch.Covers(d) {
			count++
		}
	}

	ch.CompletedDays = count
	if err := tx.Save(ch).Error; err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

// evaluateRolloverTx settles an active challenge whose window has elapsed:
// completed when the day count met the week's requirement, failed otherwise.
// Terminal rows are never re-evaluated; returns whether a transition happened.
func evaluateRolloverTx(tx *gorm.DB, ch *models.WeeklyChallenge, today time.Time) (bool, error) {
	if ch.Status != models.ChallengeStatusActive {
		return false, nil
	}
	if !today.After(DateOf(ch.EndDate)) {
		return false, nil
	}

	if err := recomputeChallengeDaysTx(tx, ch); err != nil {
		return false, err
	}

	required := config.Get().ChallengeLengthDays
	if ch.CompletedDays >= required {
		ch.Status = models.ChallengeStatusCompleted
	} else {
		ch.Status = models.ChallengeStatusFailed
	}
	if err := tx.Save(ch).Error; err != nil {
		return false, fmt.Errorf("settle challenge: %w", err)
	}
	return true, nil
}

// activeChallengeCovering finds the user's active challenge whose window
// includes day, locked FOR UPDATE.
func activeChallengeCovering(tx *gorm.DB, userID uint, day time.Time) (*models.WeeklyChallenge, error) {
	var ch models.WeeklyChallenge
	err := lockForUpdate(tx).
		Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, models.ChallengeStatusActive, day, day).
		Order("start_date DESC").
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active challenge: %w", err)
	}
	return &ch, nil
}

// getOrCreateActiveChallengeTx returns the challenge covering today,
// settling an elapsed one and opening a fresh window when needed.
func getOrCreateActiveChallengeTx(tx *gorm.DB, userID uint, today time.Time) (*models.WeeklyChallenge, error) {
	ch, err := activeChallengeCovering(tx, userID, today)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, ErrChallengeNotFound) {
		return nil, err
	}

	// Opportunistic rollover: an elapsed active window is settled before a
	// new one opens, so terminal states are never skipped.
	var stale []models.WeeklyChallenge
	if err := lockForUpdate(tx).
		Where("user_id = ? AND status = ? AND end_date < ?", userID, models.ChallengeStatusActive, today).
		Find(&stale).Error; err != nil {
		return nil, fmt.Errorf("find elapsed challenges: %w", err)
	}
	for i := range stale {
		if _, err := evaluateRolloverTx(tx, &stale[i], today); err != nil {
			return nil, err
		}
	}

	cfg := config.Get()
	ch = &models.WeeklyChallenge{
		UserID:            userID,
		StartDate:         today,
		EndDate:           today.AddDate(0, 0, cfg.ChallengeLengthDays-1),
		RestDaysAvailable: cfg.RestDaysPerChallenge,
		Status:            models.ChallengeStatusActive,
	}
	if err := tx.Create(ch).Error; err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return ch, nil
}

// GetOrCreateActiveChallenge returns the challenge covering today for the
// user, creating a new window starting today when none is active.
func (e *Engine) GetOrCreateActiveChallenge(userID uint) (*models.WeeklyChallenge, error) {
	today := e.Today()
	var out *models.WeeklyChallenge
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = getOrCreateActiveChallengeTx(tx, userID, today)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
