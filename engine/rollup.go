package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/config"
	"github.com/dayproof/dayproof/models"
)

// RollupResult summarizes one nightly rollup invocation. Failures carries
// per-user errors that were isolated and logged rather than aborting the
// batch.
type RollupResult struct {
	Skipped        bool      `json:"skipped"`
	RunDate        time.Time `json:"run_date"`
	UsersProcessed int       `json:"users_processed"`
	AutoApproved   int       `json:"auto_approved"`
	BonusesAwarded int       `json:"bonuses_awarded"`
	Failures       []string  `json:"failures,omitempty"`
}

// RunNightlyRollup applies the once-per-day time-based effects: stale
// pending uploads are auto-approved through the verification path, streaks
// decay over genuinely missed days, elapsed challenges settle, and weekly
// bonuses are synchronized. A persisted per-date marker makes retried cron
// invocations no-ops.
func (e *Engine) RunNightlyRollup() (*RollupResult, error) {
	today := e.Today()
	result := &RollupResult{RunDate: today}

	var marker models.RollupRun
	err := e.db.Where("run_date = ?", today).First(&marker).Error
	if err == nil {
		result.Skipped = true
		return result, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("read rollup marker: %w", err)
	}

	e.autoResolvePending(today, result)

	var userIDs []uint
	if err := e.db.Model(&models.User{}).Order("id ASC").Pluck("id", &userIDs).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for _, userID := range userIDs {
		if err := e.rollupUser(userID, today, result); err != nil {
			// One user's failure must not abort the rest of the batch.
			msg := fmt.Sprintf("user %d: %v", userID, err)
			result.Failures = append(result.Failures, msg)
			if e.log != nil {
				e.log.Errorf("rollup %s", msg)
			}
			continue
		}
		result.UsersProcessed++
	}

	marker = models.RollupRun{
		RunDate:        today,
		UsersProcessed: result.UsersProcessed,
		AutoApproved:   result.AutoApproved,
		BonusesAwarded: result.BonusesAwarded,
		FailureCount:   len(result.Failures),
		Failures:       strings.Join(result.Failures, "; "),
	}
	if err := e.db.Create(&marker).Error; err != nil {
		// A concurrent invocation may have won the unique index; its
		// effects are equivalent, so just report ours.
		if e.log != nil {
			e.log.Warnf("persist rollup marker: %v", err)
		}
	}

	if e.log != nil {
		e.log.Infow("nightly rollup complete",
			"run_date", today.Format(DateLayout),
			"users", result.UsersProcessed,
			"auto_approved", result.AutoApproved,
			"bonuses", result.BonusesAwarded,
			"failures", len(result.Failures),
		)
	}
	return result, nil
}

// autoResolvePending approves uploads an administrator failed to verify in
// time, routing each through the verification handler so auto-approval has
// exactly the same side effects as a manual one.
func (e *Engine) autoResolvePending(today time.Time, result *RollupResult) {
	var stale []models.Upload
	if err := e.db.Where("status = ? AND upload_date < ?", models.UploadStatusPending, today).
		Order("upload_date ASC").
		Find(&stale).Error; err != nil {
		result.Failures = append(result.Failures, fmt.Sprintf("list stale pending uploads: %v", err))
		return
	}

	for i := range stale {
		if _, err := e.verifyUploadAt(stale[i].ID, nil, DecisionApproved, today); err != nil {
			if errors.Is(err, ErrAlreadyVerified) {
				continue // an admin raced us; their decision stands
			}
			result.Failures = append(result.Failures, fmt.Sprintf("auto-approve upload %d: %v", stale[i].ID, err))
			continue
		}
		result.AutoApproved++
	}
}

// rollupUser applies steps 2-4 for one user inside one transaction:
// missed-day decay, challenge rollover, weekly bonus sync. Ordering
// matters: bonuses are computed only after rollover settles the week.
func (e *Engine) rollupUser(userID uint, today time.Time, result *RollupResult) error {
	var completedNow []models.WeeklyChallenge
	bonuses := 0

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := recomputeStreakTx(tx, userID, today, true); err != nil {
			return err
		}

		var elapsed []models.WeeklyChallenge
		if err := tx.Where("user_id = ? AND status = ? AND end_date < ?",
			userID, models.ChallengeStatusActive, today).
			Find(&elapsed).Error; err != nil {
			return fmt.Errorf("find elapsed challenges: %w", err)
		}
		for i := range elapsed {
			transitioned, err := evaluateRolloverTx(tx, &elapsed[i], today)
			if err != nil {
				return err
			}
			if transitioned && elapsed[i].Status == models.ChallengeStatusCompleted {
				completedNow = append(completedNow, elapsed[i])
			}
		}

		n, err := syncWeeklyBonusesTx(tx, userID)
		if err != nil {
			return err
		}
		bonuses = n

		// A fresh window opens right away when the user already has
		// qualifying activity today; otherwise their next action opens it.
		active, err := hasActivityOn(tx, userID, today)
		if err != nil {
			return err
		}
		if active {
			if _, err := getOrCreateActiveChallengeTx(tx, userID, today); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	result.BonusesAwarded += bonuses
	e.invalidateDashboard(userID)
	for i := range completedNow {
		e.publish(Event{
			Type:       EventChallengeCompleted,
			UserID:     userID,
			OccurredAt: e.now(),
			Payload: map[string]any{
				"challenge_id":   completedNow[i].ID,
				"completed_days": completedNow[i].CompletedDays,
			},
		})
	}
	return nil
}

// syncWeeklyBonusesTx awards the completion bonus for every completed
// challenge that has no weekly_bonus transaction yet. The ledger guard
// makes the payout exactly-once even across retried or previously failed
// rollups.
func syncWeeklyBonusesTx(tx *gorm.DB, userID uint) (int, error) {
	var completed []models.WeeklyChallenge
	if err := tx.Where("user_id = ? AND status = ?", userID, models.ChallengeStatusCompleted).
		Find(&completed).Error; err != nil {
		return 0, fmt.Errorf("find completed challenges: %w", err)
	}

	bonus := config.Get().WeeklyBonusTrophies
	awarded := 0
	for i := range completed {
		var n int64
		if err := tx.Model(&models.TrophyTransaction{}).
			Where("challenge_id = ? AND reason = ?", completed[i].ID, models.TrophyReasonWeeklyBonus).
			Count(&n).Error; err != nil {
			return awarded, fmt.Errorf("count bonus transactions: %w", err)
		}
		if n > 0 {
			continue
		}
		chID := completed[i].ID
		if err := applyTrophyDeltaTx(tx, userID, bonus, models.TrophyReasonWeeklyBonus, nil, &chID); err != nil {
			return awarded, err
		}
		awarded++
	}
	return awarded, nil
}

// hasActivityOn reports whether the user has any upload or rest day on the
// given date. Pending uploads count as current activity.
func hasActivityOn(tx *gorm.DB, userID uint, day time.Time) (bool, error) {
	return dayCovered(tx, userID, day)
}
