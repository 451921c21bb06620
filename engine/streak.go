package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/models"
)

// satisfiedDates returns the distinct ascending calendar days the user has
// covered with an approved upload or a rest day. This union is the source
// of truth every derived streak value is recomputed from.
func satisfiedDates(tx *gorm.DB, userID uint) ([]time.Time, error) {
	var uploadDates []time.Time
	if err := tx.Model(&models.Upload{}).
		Where("user_id = ? AND status = ?", userID, models.UploadStatusApproved).
		Pluck("upload_date", &uploadDates).Error; err != nil {
		return nil, fmt.Errorf("list approved upload dates: %w", err)
	}

	var restDates []time.Time
	if err := tx.Model(&models.RestDay{}).
		Where("user_id = ?", userID).
		Pluck("rest_date", &restDates).Error; err != nil {
		return nil, fmt.Errorf("list rest dates: %w", err)
	}

	seen := make(map[time.Time]struct{}, len(uploadDates)+len(restDates))
	for _, d := range uploadDates {
		seen[DateOf(d)] = struct{}{}
	}
	for _, d := range restDates {
		seen[DateOf(d)] = struct{}{}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// computeRuns walks the ordered satisfied days and returns the length of
// the unbroken run ending at the most recent day plus the longest run
// anywhere in the history. A gap of more than one day breaks a run.
func computeRuns(dates []time.Time) (tail, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	tail = 1
	longest = 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) == 1 {
			tail++
		} else {
			tail = 1
		}
		if tail > longest {
			longest = tail
		}
	}
	return tail, longest
}

// lockStreakRow fetches the user's streak row FOR UPDATE, creating the zero
// row on first touch. A user with no history recomputes to zero state, never
// an error.
func lockStreakRow(tx *gorm.DB, userID uint) (*models.Streak, error) {
	var st models.Streak
	err := lockForUpdate(tx).
		Where("user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = models.Streak{UserID: userID}
		if err := tx.Create(&st).Error; err != nil {
			return nil, fmt.Errorf("create streak row: %w", err)
		}
		return &st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock streak row: %w", err)
	}
	return &st, nil
}

// recomputeStreakTx rebuilds current/longest from the ledgers. applyDecay
// must be true only for the nightly rollup: a full calendar day missed
// (nothing satisfied yesterday or earlier) resets the current streak to 0
// and lapses any admin baseline the miss postdates. User-triggered
// recomputation never decays mid-day, and never undoes a settled decay:
// when the run does not reach today it may hold or lower the stored
// current, not raise it.
//
// The admin baseline acts as a component-wise floor after decay handling:
// current >= BaselineStreak and longest >= BaselineLongest until the floor
// is lapsed or cleared. The stored longest value is monotonic.
func recomputeStreakTx(tx *gorm.DB, userID uint, today time.Time, applyDecay bool) (prevCurrent int, st *models.Streak, err error) {
	st, err = lockStreakRow(tx, userID)
	if err != nil {
		return 0, nil, err
	}
	prevCurrent = st.CurrentStreak

	dates, err := satisfiedDates(tx, userID)
	if err != nil {
		return prevCurrent, nil, err
	}

	tail, longestRun := computeRuns(dates)
	current := tail

	var lastActivity *time.Time
	if len(dates) > 0 {
		d := dates[len(dates)-1]
		lastActivity = &d
	}

	if applyDecay {
		// The floor itself does not decay while it is fresher than the
		// newest real activity.
		effectiveLast := lastActivity
		if st.HasBaseline() && (effectiveLast == nil || st.BaselineDate.After(*effectiveLast)) {
			effectiveLast = st.BaselineDate
		}
		if effectiveLast == nil || daysBetween(DateOf(*effectiveLast), today) > 1 {
			// A genuine miss: the gap day postdates whatever the floor was
			// protecting, so the floor no longer applies.
			current = 0
			st.BaselineDate = nil
			st.BaselineStreak = 0
			st.BaselineLongest = 0
		}
	} else if lastActivity == nil || daysBetween(DateOf(*lastActivity), today) > 1 {
		// The run does not reach today. The nightly job may already have
		// settled a decay over this gap, and a user-triggered recompute
		// must not resurrect the stale value: hold or lower, never raise
		// a non-adjacent tail.
		if current > st.CurrentStreak {
			current = st.CurrentStreak
		}
	}

	if st.HasBaseline() {
		if current < st.BaselineStreak {
			current = st.BaselineStreak
		}
		if longestRun < st.BaselineLongest {
			longestRun = st.BaselineLongest
		}
	}

	longest := st.LongestStreak
	if longestRun > longest {
		longest = longestRun
	}
	if current > longest {
		longest = current
	}

	st.CurrentStreak = current
	st.LongestStreak = longest
	st.LastActivityDate = lastActivity

	if err := tx.Save(st).Error; err != nil {
		return prevCurrent, nil, fmt.Errorf("save streak: %w", err)
	}
	return prevCurrent, st, nil
}

// GetStreak returns the user's streak row read-only, zero state when the
// user has no history yet.
func (e *Engine) GetStreak(userID uint) (*models.Streak, error) {
	var st models.Streak
	err := e.db.Where("user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Streak{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return &st, nil
}
