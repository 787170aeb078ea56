package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/insight"
)

// Mood query bounds.
const (
	DefaultMoodDays  = 30
	DefaultMoodLimit = 50
	topTagCount      = 5
)

func validScale(field string, v int, optional bool) error {
	if optional && v == 0 {
		return nil
	}
	if v < 1 || v > 10 {
		return domain.Invalid(field, "must be between 1 and 10")
	}
	return nil
}

// LogMood stores a mood. Notes, when present, get a sentiment and canned insights.
func (s *Service) LogMood(ctx context.Context, userID string, req domain.LogMoodRequest) (*domain.Mood, error) {
	if err := validScale("moodScore", req.MoodScore, false); err != nil {
		return nil, err
	}
	if !domain.ValidMoodEmoji(req.MoodEmoji) {
		return nil, domain.Invalid("moodEmoji", "must be one of "+strings.Join(domain.MoodEmojis, " "))
	}
	if err := validScale("energyLevel", req.EnergyLevel, true); err != nil {
		return nil, err
	}
	if err := validScale("sleepQuality", req.SleepQuality, true); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mood := &domain.Mood{
		MoodID:       uuid.New().String(),
		UserID:       userID,
		MoodScore:    req.MoodScore,
		MoodEmoji:    req.MoodEmoji,
		Activities:   req.Activities,
		Triggers:     req.Triggers,
		Notes:        strings.TrimSpace(req.Notes),
		EnergyLevel:  req.EnergyLevel,
		SleepQuality: req.SleepQuality,
		LoggedAt:     now,
		CreatedAt:    now,
	}
	if mood.Notes != "" {
		mood.Sentiment = insight.AnalyzeSentiment(mood.Notes)
		mood.AIInsights = insight.GenerateInsights(mood.MoodScore)
	}

	if err := s.store.CreateMood(ctx, mood); err != nil {
		return nil, fmt.Errorf("failed to log mood: %w", err)
	}
	return mood, nil
}

// MoodHistory returns the user's moods from the last days, newest first.
func (s *Service) MoodHistory(ctx context.Context, userID string, days, limit int) ([]domain.Mood, error) {
	if days <= 0 {
		days = DefaultMoodDays
	}
	if limit <= 0 {
		limit = DefaultMoodLimit
	}
	since := time.Now().AddDate(0, 0, -days)
	moods, err := s.store.ListMoods(ctx, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list moods: %w", err)
	}
	return moods, nil
}

// MoodStatistics summarizes the user's moods from the last days.
func (s *Service) MoodStatistics(ctx context.Context, userID string, days int) (*domain.MoodStatistics, error) {
	if days <= 0 {
		days = DefaultMoodDays
	}
	since := time.Now().AddDate(0, 0, -days)
	moods, err := s.store.ListMoods(ctx, userID, since, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list moods: %w", err)
	}
	return ComputeMoodStatistics(moods), nil
}

// ComputeMoodStatistics aggregates moods in any order.
func ComputeMoodStatistics(moods []domain.Mood) *domain.MoodStatistics {
	stats := &domain.MoodStatistics{
		TotalLogs:     len(moods),
		MoodTrend:     domain.MoodTrendStable,
		TopTriggers:   []domain.TagCount{},
		TopActivities: []domain.TagCount{},
	}
	if len(moods) == 0 {
		return stats
	}

	ordered := make([]domain.Mood, len(moods))
	copy(ordered, moods)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	sum := 0
	stats.HighestMood = ordered[0].MoodScore
	stats.LowestMood = ordered[0].MoodScore
	triggers := map[string]int{}
	activities := map[string]int{}
	for _, m := range ordered {
		sum += m.MoodScore
		stats.HighestMood = max(stats.HighestMood, m.MoodScore)
		stats.LowestMood = min(stats.LowestMood, m.MoodScore)
		for _, t := range m.Triggers {
			triggers[t]++
		}
		for _, a := range m.Activities {
			activities[a]++
		}
	}
	stats.AverageMood = math.Round(float64(sum)/float64(len(ordered))*100) / 100
	stats.MoodTrend = moodTrend(ordered)
	stats.TopTriggers = topTags(triggers, topTagCount)
	stats.TopActivities = topTags(activities, topTagCount)
	return stats
}

// moodTrend compares the average of the earlier half (rounded up) with the later half.
func moodTrend(ordered []domain.Mood) domain.MoodTrend {
	if len(ordered) < 2 {
		return domain.MoodTrendStable
	}
	split := (len(ordered) + 1) / 2
	avg := func(ms []domain.Mood) float64 {
		total := 0
		for _, m := range ms {
			total += m.MoodScore
		}
		return float64(total) / float64(len(ms))
	}
	first, second := avg(ordered[:split]), avg(ordered[split:])
	switch {
	case second > first:
		return domain.MoodTrendImproving
	case second < first:
		return domain.MoodTrendDeclining
	default:
		return domain.MoodTrendStable
	}
}

func topTags(counts map[string]int, n int) []domain.TagCount {
	tags := make([]domain.TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, domain.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > n {
		tags = tags[:n]
	}
	return tags
}
