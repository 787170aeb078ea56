package domain

import "time"

// Mood is a single mood log entry.
type Mood struct {
	MoodID       string     `json:"mood_id"`
	UserID       string     `json:"user_id"`
	MoodScore    int        `json:"mood_score"`
	MoodEmoji    string     `json:"mood_emoji"`
	Activities   []string   `json:"activities,omitempty"`
	Triggers     []string   `json:"triggers,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	EnergyLevel  int        `json:"energy_level,omitempty"`
	SleepQuality int        `json:"sleep_quality,omitempty"`
	Sentiment    *Sentiment `json:"sentiment,omitempty"`
	AIInsights   *Insights  `json:"ai_insights,omitempty"`
	LoggedAt     time.Time  `json:"logged_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Insights are the canned texts attached to a mood with notes.
type Insights struct {
	Pattern     string `json:"pattern"`
	Suggestion  string `json:"suggestion"`
	Affirmation string `json:"affirmation"`
}

// LogMoodRequest is the payload of POST /v1/moods.
type LogMoodRequest struct {
	MoodScore    int      `json:"moodScore"`
	MoodEmoji    string   `json:"moodEmoji"`
	Activities   []string `json:"activities"`
	Triggers     []string `json:"triggers"`
	Notes        string   `json:"notes"`
	EnergyLevel  int      `json:"energyLevel"`
	SleepQuality int      `json:"sleepQuality"`
}

// MoodTrend compares the two halves of a mood window.
type MoodTrend string

const (
	MoodTrendImproving MoodTrend = "improving"
	MoodTrendDeclining MoodTrend = "declining"
	MoodTrendStable    MoodTrend = "stable"
)

// TagCount is a tag with its frequency.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// MoodStatistics summarizes a user's moods over a window.
type MoodStatistics struct {
	TotalLogs     int        `json:"total_logs"`
	AverageMood   float64    `json:"average_mood"`
	HighestMood   int        `json:"highest_mood"`
	LowestMood    int        `json:"lowest_mood"`
	MoodTrend     MoodTrend  `json:"mood_trend"`
	TopTriggers   []TagCount `json:"top_triggers"`
	TopActivities []TagCount `json:"top_activities"`
}
