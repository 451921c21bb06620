package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dayproof/dayproof/models"
	"github.com/dayproof/dayproof/utils"
)

const dashboardCacheTTL = 5 * time.Minute

// ChallengeProgress is the dashboard view of the active weekly challenge.
type ChallengeProgress struct {
	ChallengeID       uint      `json:"challenge_id"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	CompletedDays     int       `json:"completed_days"`
	RestDaysAvailable int       `json:"rest_days_available"`
	Status            string    `json:"status"`
}

// DashboardSummary is everything the UI needs to render a user's home
// screen in one read.
type DashboardSummary struct {
	UserID           uint               `json:"user_id"`
	CurrentStreak    int                `json:"current_streak"`
	LongestStreak    int                `json:"longest_streak"`
	Trophies         int                `json:"trophies"`
	LastActivityDate *time.Time         `json:"last_activity_date,omitempty"`
	Challenge        *ChallengeProgress `json:"challenge,omitempty"`
}

func dashboardCacheKey(userID uint) string {
	return fmt.Sprintf("dashboard:%d", userID)
}

func (e *Engine) invalidateDashboard(userID uint) {
	if !e.cacheDashboards {
		return
	}
	utils.CacheDelete(dashboardCacheKey(userID))
}

// GetDashboardSummary assembles the read-only summary, served from Redis
// when a fresh snapshot exists. Every engine write for the user drops the
// snapshot.
func (e *Engine) GetDashboardSummary(userID uint) (*DashboardSummary, error) {
	if e.cacheDashboards {
		if b, ok := utils.CacheGetBytes(dashboardCacheKey(userID)); ok {
			var cached DashboardSummary
			if err := json.Unmarshal(b, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var user models.User
	err := e.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	st, err := e.GetStreak(userID)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		UserID:           userID,
		CurrentStreak:    st.CurrentStreak,
		LongestStreak:    st.LongestStreak,
		Trophies:         user.Trophies,
		LastActivityDate: st.LastActivityDate,
	}

	var ch models.WeeklyChallenge
	err = e.db.Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
		userID, models.ChallengeStatusActive, e.Today(), e.Today()).
		Order("start_date DESC").
		First(&ch).Error
	if err == nil {
		summary.Challenge = &ChallengeProgress{
			ChallengeID:       ch.ID,
			StartDate:         ch.StartDate,
			EndDate:           ch.EndDate,
			CompletedDays:     ch.CompletedDays,
			RestDaysAvailable: ch.RestDaysAvailable,
			Status:            ch.Status,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get active challenge: %w", err)
	}

	if e.cacheDashboards {
		utils.CacheSetJSON(dashboardCacheKey(userID), summary, dashboardCacheTTL)
	}
	return summary, nil
}
