package model

import "time"

// DateLayout is the date-only encoding of UserStats.LastActivityDate.
const DateLayout = "2006-01-02"

type AchievementType string

const (
	AchievementStreak    AchievementType = "streak"
	AchievementMilestone AchievementType = "milestone"
)

type Achievement struct {
	UserID     string          `json:"userId"`
	Type       AchievementType `json:"type"`
	Value      int             `json:"value"`
	UnlockedAt time.Time       `json:"unlockedAt"`
}

type UserStats struct {
	UserID              string        `json:"userId"`
	CurrentStreak       int           `json:"currentStreak"`
	LongestStreak       int           `json:"longestStreak"`
	TotalTasksCompleted int           `json:"totalTasksCompleted"`
	TotalTasksCreated   int           `json:"totalTasksCreated"`
	LastActivityDate    string        `json:"lastActivityDate,omitempty"`
	Achievements        []Achievement `json:"achievements"`
}

func NewUserStats(userID string) UserStats {
	return UserStats{UserID: userID, Achievements: []Achievement{}}
}

func (s UserStats) HasAchievement(kind AchievementType, value int) bool {
	for _, a := range s.Achievements {
		if a.Type == kind && a.Value == value {
			return true
		}
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Theme     string    `json:"theme,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
