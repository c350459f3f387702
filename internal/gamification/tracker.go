package gamification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

// Thresholds unlock when the counter equals the value exactly.
var (
	StreakThresholds    = []int{7, 30}
	MilestoneThresholds = []int{100}
)

// Tracker serializes its read-modify-write of stats records, so concurrent
// events in one process never lose an update.
type Tracker struct {
	mu    sync.Mutex
	store storage.StatsStore
	now   func() time.Time
	loc   *time.Location
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLocation sets the zone whose calendar days define a streak.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

func NewTracker(store storage.StatsStore, opts ...Option) *Tracker {
	t := &Tracker{store: store, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) GetUserStats(ctx context.Context, userID string) (model.UserStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored, err := t.load(ctx, userID)
	if err != nil {
		return model.UserStats{}, err
	}
	return toModel(stored), nil
}

func (t *Tracker) RecordTaskCreated(ctx context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, err := t.load(ctx, userID)
	if err != nil {
		return err
	}
	stats.TotalTasksCreated++
	stats.UpdatedAt = t.now().UTC()
	if err := t.store.UpdateStats(ctx, stats); err != nil {
		return fmt.Errorf("gamification: save stats: %w", err)
	}
	return nil
}

// RecordTaskCompleted advances the streak for a pending to done move and
// unlocks any achievement reached by it.
func (t *Tracker) RecordTaskCompleted(ctx context.Context, userID string, _ model.Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, err := t.load(ctx, userID)
	if err != nil {
		return err
	}
	now := t.now()
	today := now.In(t.loc).Format(model.DateLayout)

	stats.CurrentStreak = NextStreak(stats.LastActivityDate, today, stats.CurrentStreak)
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.TotalTasksCompleted++
	stats.LastActivityDate = today
	stats.UpdatedAt = now.UTC()

	current := toModel(stats)
	for _, v := range StreakThresholds {
		if stats.CurrentStreak == v && !current.HasAchievement(model.AchievementStreak, v) {
			stats.Achievements = append(stats.Achievements, storage.Achievement{Type: string(model.AchievementStreak), Value: v, UnlockedAt: now.UTC()})
		}
	}
	for _, v := range MilestoneThresholds {
		if stats.TotalTasksCompleted == v && !current.HasAchievement(model.AchievementMilestone, v) {
			stats.Achievements = append(stats.Achievements, storage.Achievement{Type: string(model.AchievementMilestone), Value: v, UnlockedAt: now.UTC()})
		}
	}

	if err := t.store.UpdateStats(ctx, stats); err != nil {
		return fmt.Errorf("gamification: save stats: %w", err)
	}
	return nil
}

// NextStreak applies one completion on day today to a streak whose last
// active day was last. Both dates use model.DateLayout.
func NextStreak(last, today string, streak int) int {
	if last == "" {
		return 1
	}
	lastDay, err := time.Parse(model.DateLayout, last)
	if err != nil {
		return 1
	}
	todayDay, err := time.Parse(model.DateLayout, today)
	if err != nil {
		return 1
	}
	diff := int(todayDay.Sub(lastDay).Hours() / 24)
	switch {
	case diff == 1:
		return streak + 1
	case diff > 1:
		return 1
	default:
		if streak == 0 {
			return 1
		}
		return streak
	}
}

// load returns the user's stats, creating the record on first use.
func (t *Tracker) load(ctx context.Context, userID string) (storage.UserStats, error) {
	stats, err := t.store.GetStats(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.UserStats{}, fmt.Errorf("gamification: load stats: %w", err)
	}

	fresh := storage.UserStats{UserID: userID, Achievements: []storage.Achievement{}, UpdatedAt: t.now().UTC()}
	if insertErr := t.store.InsertStats(ctx, fresh); insertErr != nil {
		// Another request may have created the record first.
		stats, err = t.store.GetStats(ctx, userID)
		if err != nil {
			return storage.UserStats{}, fmt.Errorf("gamification: create stats: %w", insertErr)
		}
		return stats, nil
	}
	return fresh, nil
}

func toModel(in storage.UserStats) model.UserStats {
	out := model.NewUserStats(in.UserID)
	out.CurrentStreak = in.CurrentStreak
	out.LongestStreak = in.LongestStreak
	out.TotalTasksCompleted = in.TotalTasksCompleted
	out.TotalTasksCreated = in.TotalTasksCreated
	out.LastActivityDate = in.LastActivityDate
	for _, a := range in.Achievements {
		out.Achievements = append(out.Achievements, model.Achievement{
			UserID:     in.UserID,
			Type:       model.AchievementType(a.Type),
			Value:      a.Value,
			UnlockedAt: a.UnlockedAt,
		})
	}
	return out
}
