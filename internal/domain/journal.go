package domain

import "time"

// Journal limits.
const (
	MaxJournalTitleLength = 200
	MinJournalContent     = 10
)

// JournalEntry is a private journal entry.
type JournalEntry struct {
	JournalID   string          `json:"journal_id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	MoodAtTime  int             `json:"mood_at_time,omitempty"`
	Category    JournalCategory `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Sentiment   *Sentiment      `json:"sentiment,omitempty"`
	Emotions    []string        `json:"emotions,omitempty"`
	Affirmation string          `json:"affirmation,omitempty"`
	IsPrivate   bool            `json:"is_private"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateJournalRequest is the payload of POST /v1/journals.
type CreateJournalRequest struct {
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	MoodAtTime int             `json:"moodAtTime"`
	Category   JournalCategory `json:"category"`
	Tags       []string        `json:"tags"`
	IsPrivate  *bool           `json:"isPrivate"`
}
