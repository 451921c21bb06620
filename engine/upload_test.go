package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayproof/dayproof/models"
)

func TestCreateUploadStartsPending(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "leg day")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusPending, up.Status)
	assert.NotZero(t, up.ChallengeID)
	assert.Nil(t, up.VerifierID)
	assert.Nil(t, up.VerifiedAt)

	// A pending upload earns nothing yet.
	assert.Equal(t, 0, cachedTrophies(t, db, userID))
	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.CurrentStreak)
}

func TestCreateUploadOpensChallengeWindow(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)

	var ch models.WeeklyChallenge
	require.NoError(t, db.First(&ch, up.ChallengeID).Error)
	assert.True(t, ch.StartDate.Equal(mustDate("2026-03-02")))
	assert.True(t, ch.EndDate.Equal(mustDate("2026-03-08")))
	assert.Equal(t, 3, ch.RestDaysAvailable)
	assert.Equal(t, models.ChallengeStatusActive, ch.Status)
}

func TestCreateUploadValidation(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	_, err := e.CreateUpload(userID, mustDate("2026-03-02"), "  ", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.CreateUpload(userID, mustDate("2026-03-03"), "photos/a.jpg", "")
	assert.ErrorIs(t, err, ErrValidation, "future dates are rejected")
}

func TestCreateUploadRejectsCoveredDay(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	_, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)

	// Still pending, but the day is taken.
	_, err = e.CreateUpload(userID, mustDate("2026-03-02"), "photos/b.jpg", "")
	assert.ErrorIs(t, err, ErrDayAlreadyCovered)
}

func TestCreateUploadRejectsRestDayDate(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	approveDay(t, e, userID, "2026-03-02")

	setClock(e, "2026-03-03")
	ch, err := e.GetOrCreateActiveChallenge(userID)
	require.NoError(t, err)
	_, err = e.UseRestDay(userID, ch.ID, mustDate("2026-03-03"))
	require.NoError(t, err)

	_, err = e.CreateUpload(userID, mustDate("2026-03-03"), "photos/c.jpg", "")
	assert.ErrorIs(t, err, ErrDayAlreadyCovered)
}

func TestListPendingUploadsOldestFirst(t *testing.T) {
	e, db := newTestEngine(t)
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	setClock(e, "2026-03-03")
	second, err := e.CreateUpload(a, mustDate("2026-03-03"), "photos/a.jpg", "")
	require.NoError(t, err)
	first, err := e.CreateUpload(b, mustDate("2026-03-02"), "photos/b.jpg", "")
	require.NoError(t, err)

	pending, err := e.ListPendingUploads(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}
