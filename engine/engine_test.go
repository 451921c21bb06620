package engine

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dayproof/dayproof/config"
	"github.com/dayproof/dayproof/models"
)

var testDBSeq atomic.Int64

// newTestDB opens a private in-memory database per test. The named shared
// cache keeps gorm's pooled connections on the same store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:engine%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Upload{},
		&models.RestDay{},
		&models.Streak{},
		&models.WeeklyChallenge{},
		&models.TrophyTransaction{},
		&models.RollupRun{},
	))
	return db
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	config.SetForTesting(config.AppConfig{
		UploadRewardTrophies: 10,
		WeeklyBonusTrophies:  50,
		RestDaysPerChallenge: 3,
		ChallengeLengthDays:  7,
	})
	db := newTestDB(t)
	return New(db, nil, nil), db
}

func mustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// setClock pins the engine's calendar to the given day.
func setClock(e *Engine, day string) {
	d := mustDate(day)
	e.now = func() time.Time { return d }
}

func seedUser(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

// approveDay uploads and approves a proof for the given day, advancing the
// engine clock to that day first.
func approveDay(t *testing.T, e *Engine, userID uint, day string) *models.Upload {
	t.Helper()
	setClock(e, day)
	up, err := e.CreateUpload(userID, mustDate(day), "photos/"+day+".jpg", "")
	require.NoError(t, err)
	up, err = e.VerifyUpload(up.ID, 999, DecisionApproved)
	require.NoError(t, err)
	return up
}

func cachedTrophies(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, userID).Error)
	return u.Trophies
}
