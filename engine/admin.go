package engine

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/models"
)

// AdminSetTrophies moves the user's trophy total to an absolute target by
// recording the needed delta with reason admin_set, so the ledger stays a
// complete audit trail even for manual overrides.
func (e *Engine) AdminSetTrophies(userID uint, absolute int) error {
	if absolute < 0 {
		return fmt.Errorf("%w: trophies cannot be negative", ErrValidation)
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := lockForUpdate(tx).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		delta := absolute - user.Trophies
		return applyTrophyDeltaTx(tx, userID, delta, models.TrophyReasonAdminSet, nil, nil)
	})
	if err != nil {
		return err
	}

	e.invalidateDashboard(userID)
	return nil
}

// AdminOverrideStreak writes absolute streak values and establishes the
// baseline floor recomputation must not undercut. A current value of 0
// clears the floor and returns control fully to automatic recomputation.
// When baselineDate is nil the floor is dated today.
func (e *Engine) AdminOverrideStreak(userID uint, current, longest int, baselineDate *time.Time) error {
	if current < 0 || longest < 0 {
		return fmt.Errorf("%w: streak values cannot be negative", ErrValidation)
	}
	if longest < current {
		longest = current
	}
	today := e.Today()

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		st, err := lockStreakRow(tx, userID)
		if err != nil {
			return err
		}

		if current == 0 {
			st.BaselineDate = nil
			st.BaselineStreak = 0
			st.BaselineLongest = 0
		} else {
			day := today
			if baselineDate != nil {
				day = DateOf(*baselineDate)
			}
			st.BaselineDate = &day
			st.BaselineStreak = current
			st.BaselineLongest = longest
		}
		// Absolute values are written directly; this is the one sanctioned
		// way longest may move downward. Recomputation below restores any
		// larger value the ledgers still prove.
		st.CurrentStreak = current
		st.LongestStreak = longest
		if err := tx.Save(st).Error; err != nil {
			return fmt.Errorf("save baseline: %w", err)
		}

		// Recompute immediately so the floor (or its clearing) is visible
		// without waiting for the next ledger write.
		_, _, err = recomputeStreakTx(tx, userID, today, false)
		return err
	})
	if err != nil {
		return err
	}

	e.invalidateDashboard(userID)
	return nil
}
