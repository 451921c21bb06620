package engine

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine owns all writes to derived accounting state. Construct one per
// process and share it; methods are safe for concurrent use because every
// mutation runs inside a DB transaction with row locks.
type Engine struct {
	db  *gorm.DB
	pub Publisher
	log *zap.SugaredLogger

	// now is swapped out by tests to pin the calendar.
	now func() time.Time

	cacheDashboards bool
}

// New constructs the accounting engine. pub may be nil when no event
// collaborator is configured.
func New(db *gorm.DB, pub Publisher, log *zap.SugaredLogger) *Engine {
	return &Engine{
		db:  db,
		pub: pub,
		log: log,
		now: time.Now,
	}
}

// EnableDashboardCache turns on Redis-backed dashboard snapshots.
func (e *Engine) EnableDashboardCache() {
	e.cacheDashboards = true
}

// Today returns the current calendar day as the engine sees it.
func (e *Engine) Today() time.Time {
	return DateOf(e.now())
}

// lockForUpdate applies a FOR UPDATE row lock where the dialect supports
// it. SQLite (used by the test harness) serializes writers on its own and
// rejects the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
