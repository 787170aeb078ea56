package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/insight"
)

// DefaultJournalLimit bounds ListJournals when no limit is given.
const DefaultJournalLimit = 20

// CreateJournal stores an entry annotated with sentiment, detected emotions and an affirmation.
func (s *Service) CreateJournal(ctx context.Context, userID string, req domain.CreateJournalRequest) (*domain.JournalEntry, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	switch {
	case title == "":
		return nil, domain.Invalid("title", "is required")
	case utf8.RuneCountInString(title) > domain.MaxJournalTitleLength:
		return nil, domain.Invalid("title", "exceeds 200 characters")
	case utf8.RuneCountInString(content) < domain.MinJournalContent:
		return nil, domain.Invalid("content", "must be at least 10 characters")
	case !req.Category.Valid():
		return nil, domain.Invalid("category", "unknown category "+string(req.Category))
	}
	if err := validScale("moodAtTime", req.MoodAtTime, true); err != nil {
		return nil, err
	}

	entry := &domain.JournalEntry{
		JournalID:  uuid.New().String(),
		UserID:     userID,
		Title:      title,
		Content:    content,
		MoodAtTime: req.MoodAtTime,
		Category:   req.Category,
		Tags:       req.Tags,
		Sentiment:  insight.AnalyzeSentiment(content),
		Emotions:   insight.DetectEmotions(content),
		IsPrivate:  true,
		CreatedAt:  time.Now().UTC(),
	}
	if req.IsPrivate != nil {
		entry.IsPrivate = *req.IsPrivate
	}
	entry.Affirmation = insight.Affirmation(affirmationScore(entry))

	if err := s.store.CreateJournal(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}
	return entry, nil
}

// affirmationScore picks the mood score used for the affirmation bucket:
// the recorded mood if any, otherwise one derived from the sentiment label.
func affirmationScore(entry *domain.JournalEntry) int {
	if entry.MoodAtTime > 0 {
		return entry.MoodAtTime
	}
	if entry.Sentiment == nil {
		return 5
	}
	switch entry.Sentiment.Label {
	case domain.SentimentPositive:
		return 8
	case domain.SentimentNegative:
		return 2
	default:
		return 5
	}
}

func (s *Service) ListJournals(ctx context.Context, userID string, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	entries, err := s.store.ListJournals(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, nil
}
