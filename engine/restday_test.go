package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayproof/dayproof/models"
)

func TestUseRestDayCountsTowardStreakAndChallenge(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	approveDay(t, e, userID, "2026-03-02")

	setClock(e, "2026-03-03")
	ch, err := e.GetOrCreateActiveChallenge(userID)
	require.NoError(t, err)

	rd, err := e.UseRestDay(userID, ch.ID, mustDate("2026-03-03"))
	require.NoError(t, err)
	assert.True(t, rd.RestDate.Equal(mustDate("2026-03-03")))

	require.NoError(t, db.First(ch, ch.ID).Error)
	assert.Equal(t, 2, ch.RestDaysAvailable)
	assert.Equal(t, 2, ch.CompletedDays)

	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentStreak)

	// Rest days earn no trophies.
	assert.Equal(t, 10, cachedTrophies(t, db, userID))
}

func TestUseRestDayRejectsCoveredDay(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	up := approveDay(t, e, userID, "2026-03-02")

	_, err := e.UseRestDay(userID, up.ChallengeID, mustDate("2026-03-02"))
	assert.ErrorIs(t, err, ErrDayAlreadyCovered)
}

func TestUseRestDayExhaustsAllowance(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-05")
	ch, err := e.GetOrCreateActiveChallenge(userID)
	require.NoError(t, err)

	for _, day := range []string{"2026-03-05", "2026-03-06", "2026-03-07"} {
		setClock(e, day)
		_, err := e.UseRestDay(userID, ch.ID, mustDate(day))
		require.NoError(t, err)
	}

	setClock(e, "2026-03-08")
	_, err = e.UseRestDay(userID, ch.ID, mustDate("2026-03-08"))
	assert.ErrorIs(t, err, ErrNoRestDaysLeft)

	require.NoError(t, db.First(ch, ch.ID).Error)
	assert.Equal(t, 0, ch.RestDaysAvailable)
	assert.Equal(t, 3, ch.CompletedDays)
}

func TestUseRestDayOutsideWindow(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")
	ch, err := e.GetOrCreateActiveChallenge(userID)
	require.NoError(t, err)

	_, err = e.UseRestDay(userID, ch.ID, mustDate("2026-03-01"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUseRestDayWrongOwnerOrMissingChallenge(t *testing.T) {
	e, db := newTestEngine(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	setClock(e, "2026-03-02")
	ch, err := e.GetOrCreateActiveChallenge(alice)
	require.NoError(t, err)

	_, err = e.UseRestDay(bob, ch.ID, mustDate("2026-03-02"))
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = e.UseRestDay(alice, 9999, mustDate("2026-03-02"))
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestUseRestDayOnSettledChallenge(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")
	ch, err := e.GetOrCreateActiveChallenge(userID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.WeeklyChallenge{}).
		Where("id = ?", ch.ID).
		Update("status", models.ChallengeStatusFailed).Error)

	_, err = e.UseRestDay(userID, ch.ID, mustDate("2026-03-02"))
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
