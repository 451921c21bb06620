package engine

import "time"

// Domain event types emitted after a successful commit. Delivery is
// best-effort: a subscriber failure never rolls back accounting state.
const (
	EventUploadVerified     = "upload.verified"
	EventChallengeCompleted = "challenge.completed"
	EventStreakMilestone    = "streak.milestone"
)

// Event is a notification-facing record of something the engine decided.
type Event struct {
	Type       string         `json:"type"`
	UserID     uint           `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher delivers domain events to external collaborators (push
// notifications and the like). Implementations must be safe for concurrent
// use.
type Publisher interface {
	Publish(evt Event) error
}

// streakMilestoneEvery is the cadence for streak celebration events.
const streakMilestoneEvery = 7

func (e *Engine) publish(evt Event) {
	if e.pub == nil {
		return
	}
	if err := e.pub.Publish(evt); err != nil && e.log != nil {
		e.log.Warnf("event publish failed type=%s user=%d: %v", evt.Type, evt.UserID, err)
	}
}
