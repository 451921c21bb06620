package engine

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/config"
	"github.com/dayproof/dayproof/models"
)

// Decision values accepted by VerifyUpload.
const (
	DecisionApproved = models.UploadStatusApproved
	DecisionRejected = models.UploadStatusRejected
)

// VerifyUpload is the exclusive entry point for turning a verification
// decision into durable side effects. One DB transaction flips the upload
// status, recomputes the streak and the challenge progress from the
// ledgers, and settles trophies, so a crash leaves either the old state or
// the new one, never a mix.
//
// Allowed transitions: pending -> approved, pending -> rejected, and
// approved -> rejected (an admin correction, which reverses the original
// award). Anything else is ErrAlreadyVerified with no side effects, which
// also serializes concurrent double-verification: the FOR UPDATE lock on
// the upload row makes the second caller observe the terminal status.
func (e *Engine) VerifyUpload(uploadID, verifierID uint, decision string) (*models.Upload, error) {
	return e.verifyUploadAt(uploadID, &verifierID, decision, e.Today())
}

func (e *Engine) verifyUploadAt(uploadID uint, verifierID *uint, decision string, today time.Time) (*models.Upload, error) {
	if decision != DecisionApproved && decision != DecisionRejected {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}

	var (
		up         models.Upload
		prevStreak int
		newStreak  int
	)

	err := e.db.Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).First(&up, uploadID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUploadNotFound
		}
		if err != nil {
			return fmt.Errorf("lock upload: %w", err)
		}

		reversal := up.Status == models.UploadStatusApproved && decision == DecisionRejected
		if up.Status != models.UploadStatusPending && !reversal {
			return ErrAlreadyVerified
		}

		now := e.now()
		up.Status = decision
		up.VerifierID = verifierID
		up.VerifiedAt = &now
		if err := tx.Save(&up).Error; err != nil {
			return fmt.Errorf("save upload: %w", err)
		}

		// Trophies first: the streak recompute below needs the user row
		// lock too, and taking user then streak in a fixed order avoids
		// deadlocks between concurrent verifications.
		switch {
		case decision == DecisionApproved:
			reward := config.Get().UploadRewardTrophies
			if err := applyTrophyDeltaTx(tx, up.UserID, reward, models.TrophyReasonVerifiedUpload, &up.ID, nil); err != nil {
				return err
			}
		case reversal:
			// Claw back exactly what this upload earned, net of any prior
			// reversal, so the ledger still sums correctly.
			var net int
			if err := tx.Model(&models.TrophyTransaction{}).
				Where("upload_id = ?", up.ID).
				Select("COALESCE(SUM(delta), 0)").
				Scan(&net).Error; err != nil {
				return fmt.Errorf("sum upload trophies: %w", err)
			}
			if err := applyTrophyDeltaTx(tx, up.UserID, -net, models.TrophyReasonRejectionReversal, &up.ID, nil); err != nil {
				return err
			}
		}

		prev, st, err := recomputeStreakTx(tx, up.UserID, today, false)
		if err != nil {
			return err
		}
		prevStreak, newStreak = prev, st.CurrentStreak

		return e.recomputeUploadChallengeTx(tx, &up)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateDashboard(up.UserID)

	e.publish(Event{
		Type:       EventUploadVerified,
		UserID:     up.UserID,
		OccurredAt: e.now(),
		Payload: map[string]any{
			"upload_id": up.ID,
			"decision":  decision,
		},
	})
	if newStreak > prevStreak && newStreak > 0 && newStreak%streakMilestoneEvery == 0 {
		e.publish(Event{
			Type:       EventStreakMilestone,
			UserID:     up.UserID,
			OccurredAt: e.now(),
			Payload:    map[string]any{"current_streak": newStreak},
		})
	}

	return &up, nil
}

// recomputeUploadChallengeTx refreshes the day count of the challenge the
// upload belongs to. A missing challenge row is tolerated: the upload may
// predate challenge tracking, and accounting must not fail over it.
func (e *Engine) recomputeUploadChallengeTx(tx *gorm.DB, up *models.Upload) error {
	var ch models.WeeklyChallenge
	err := lockForUpdate(tx).First(&ch, up.ChallengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if e.log != nil {
			e.log.Debugf("upload %d references no challenge, skipping day recompute", up.ID)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock challenge: %w", err)
	}
	return recomputeChallengeDaysTx(tx, &ch)
}
