package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayproof/dayproof/models"
)

func TestVerifyUploadApproval(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)

	up, err = e.VerifyUpload(up.ID, 42, DecisionApproved)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusApproved, up.Status)
	require.NotNil(t, up.VerifierID)
	assert.Equal(t, uint(42), *up.VerifierID)
	require.NotNil(t, up.VerifiedAt)

	assert.Equal(t, 10, cachedTrophies(t, db, userID))
	total, err := e.TrophyTotal(userID)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	txs, err := e.ListTrophyTransactions(userID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TrophyReasonVerifiedUpload, txs[0].Reason)
	assert.Equal(t, 10, txs[0].Delta)
	require.NotNil(t, txs[0].UploadID)
	assert.Equal(t, up.ID, *txs[0].UploadID)

	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)

	var ch models.WeeklyChallenge
	require.NoError(t, db.First(&ch, up.ChallengeID).Error)
	assert.Equal(t, 1, ch.CompletedDays)
}

func TestVerifyUploadRejectionAwardsNothing(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)
	up, err = e.VerifyUpload(up.ID, 42, DecisionRejected)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusRejected, up.Status)

	assert.Equal(t, 0, cachedTrophies(t, db, userID))
	txs, err := e.ListTrophyTransactions(userID, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestVerifyUploadSecondDecisionConflicts(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)
	_, err = e.VerifyUpload(up.ID, 42, DecisionApproved)
	require.NoError(t, err)

	_, err = e.VerifyUpload(up.ID, 43, DecisionApproved)
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	// The conflicting attempt left no trace.
	assert.Equal(t, 10, cachedTrophies(t, db, userID))
	txs, err := e.ListTrophyTransactions(userID, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestVerifyUploadRejectedIsTerminal(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)
	_, err = e.VerifyUpload(up.ID, 42, DecisionRejected)
	require.NoError(t, err)

	_, err = e.VerifyUpload(up.ID, 43, DecisionApproved)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyUploadReversalRestoresPreApprovalState(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")

	approveDay(t, e, userID, "2026-03-02")
	up := approveDay(t, e, userID, "2026-03-03")
	require.Equal(t, 20, cachedTrophies(t, db, userID))

	// Admin correction: approved -> rejected claws back the award and
	// shrinks the recomputed streak.
	up, err := e.VerifyUpload(up.ID, 99, DecisionRejected)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusRejected, up.Status)

	assert.Equal(t, 10, cachedTrophies(t, db, userID))
	total, err := e.TrophyTotal(userID)
	require.NoError(t, err)
	assert.Equal(t, cachedTrophies(t, db, userID), total)

	txs, err := e.ListTrophyTransactions(userID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, models.TrophyReasonRejectionReversal, txs[0].Reason)
	assert.Equal(t, -10, txs[0].Delta)

	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)

	var ch models.WeeklyChallenge
	require.NoError(t, db.First(&ch, up.ChallengeID).Error)
	assert.Equal(t, 1, ch.CompletedDays)

	// A second rejection of the same upload is a conflict, not a second
	// clawback.
	_, err = e.VerifyUpload(up.ID, 99, DecisionRejected)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Equal(t, 10, cachedTrophies(t, db, userID))
}

func TestConcurrentVerificationExactlyOneWinner(t *testing.T) {
	e, db := newTestEngine(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One pooled connection: the two transactions below contend for it the
	// way rows contend for the FOR UPDATE lock on a real server.
	sqlDB.SetMaxOpenConns(1)

	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")
	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.VerifyUpload(up.ID, 42, DecisionApproved)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyVerified):
			conflicts++
		default:
			t.Fatalf("unexpected verification error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	// Effects applied exactly once.
	assert.Equal(t, 10, cachedTrophies(t, db, userID))
	txs, err := e.ListTrophyTransactions(userID, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	st, err := e.GetStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
}

func TestVerifyUploadUnknownDecision(t *testing.T) {
	e, db := newTestEngine(t)
	userID := seedUser(t, db, "alice")
	setClock(e, "2026-03-02")

	up, err := e.CreateUpload(userID, mustDate("2026-03-02"), "photos/a.jpg", "")
	require.NoError(t, err)
	_, err = e.VerifyUpload(up.ID, 42, "maybe")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVerifyUploadNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	setClock(e, "2026-03-02")
	_, err := e.VerifyUpload(12345, 42, DecisionApproved)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}
