package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayproof/dayproof/models"
)

func TestAdminSetTrophiesRecordsDelta(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	approveDay(t, e, userID, "2026-03-02")
	require.Equal(t, 10, cachedTrophies(t, db, userID))

	require.NoError(t, e.AdminSetTrophies(userID, 100))
	assert.Equal(t, 100, cachedTrophies(t, db, userID))

	txs, err := e.ListTrophyTransactions(userID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, models.TrophyReasonAdminSet, txs[0].Reason)
	assert.Equal(t, 90, txs[0].Delta)

	// Ledger sum still matches the cache, including for a downward move.
	require.NoError(t, e.AdminSetTrophies(userID, 25))
	total, err := e.TrophyTotal(userID)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Equal(t, 25, cachedTrophies(t, db, userID))
}

func TestAdminSetTrophiesNoOpWritesNothing(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")

	require.NoError(t, e.AdminSetTrophies(userID, 0))
	txs, err := e.ListTrophyTransactions(userID, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestAdminSetTrophiesValidation(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")

	assert.ErrorIs(t, e.AdminSetTrophies(userID, -5), ErrValidation)
	assert.ErrorIs(t, e.AdminSetTrophies(9999, 10), ErrUserNotFound)
}

func TestAdminOverrideStreakSetsFloor(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-10")

	require.NoError(t, e.AdminOverrideStreak(userID, 30, 45, nil))

	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 30, st.CurrentStreak)
	assert.Equal(t, 45, st.LongestStreak)
	require.NotNil(t, st.BaselineDate)
	assert.True(t, st.BaselineDate.Equal(mustDate("2026-03-10")), "baseline defaults to today")

	// Recomputation on new activity keeps the floor.
	approveDay(t, e, userID, "2026-03-10")
	st, err = e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 30, st.CurrentStreak)
	assert.Equal(t, 45, st.LongestStreak)
}

func TestAdminOverrideStreakFloorHeldByRollupUntilMiss(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-10")
	require.NoError(t, e.AdminOverrideStreak(userID, 30, 45, nil))

	// The night after the baseline date: no miss yet, floor holds even
	// with zero real activity.
	setClock(e, "2026-03-11")
	_, err := e.RunNightlyRollup()
	require.NoError(t, err)
	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 30, st.CurrentStreak)

	// A genuine missed day lapses the floor.
	setClock(e, "2026-03-12")
	_, err = e.RunNightlyRollup()
	require.NoError(t, err)
	st, err = e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, 45, st.LongestStreak)
	assert.False(t, st.HasBaseline())
}

func TestAdminOverrideStreakActivityExtendsFloorLife(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-10")
	require.NoError(t, e.AdminOverrideStreak(userID, 30, 45, nil))

	approveDay(t, e, userID, "2026-03-11")

	setClock(e, "2026-03-12")
	_, err := e.RunNightlyRollup()
	require.NoError(t, err)
	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 30, st.CurrentStreak, "activity after the baseline keeps the floor alive")
	assert.True(t, st.HasBaseline())
}

func TestAdminOverrideStreakZeroClearsFloor(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")

	approveDay(t, e, userID, "2026-03-02")
	approveDay(t, e, userID, "2026-03-03")
	setClock(e, "2026-03-03")
	require.NoError(t, e.AdminOverrideStreak(userID, 50, 60, nil))

	require.NoError(t, e.AdminOverrideStreak(userID, 0, 0, nil))
	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.False(t, st.HasBaseline())
	// Back on the ledgers alone: the override's values are gone and only
	// what the history proves remains.
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
}

func TestAdminOverrideStreakClampsLongest(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-10")

	require.NoError(t, e.AdminOverrideStreak(userID, 20, 5, nil))
	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 20, st.CurrentStreak)
	assert.Equal(t, 20, st.LongestStreak)
}

func TestAdminOverrideStreakValidation(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-10")

	assert.ErrorIs(t, e.AdminOverrideStreak(userID, -1, 0, nil), ErrValidation)
	assert.ErrorIs(t, e.AdminOverrideStreak(9999, 5, 5, nil), ErrUserNotFound)
}

func TestAdminOverrideStreakExplicitBaselineDate(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-10")

	past := mustDate("2026-03-01")
	require.NoError(t, e.AdminOverrideStreak(userID, 12, 12, &past))

	var st models.Streak
	require.NoError(t, db.Where("user_id = ?", userID).First(&st).Error)
	require.NotNil(t, st.BaselineDate)
	assert.True(t, st.BaselineDate.Equal(past))
	assert.Equal(t, 12, st.BaselineStreak)
}
