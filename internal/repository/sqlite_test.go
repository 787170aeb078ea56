package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/serenai/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func createCircle(t *testing.T, store *SQLiteStore, id, name string) {
	t.Helper()
	err := store.CreateCircle(context.Background(), &domain.Circle{
		CircleID:    id,
		Name:        name,
		Category:    domain.CategoryGeneral,
		IsAnonymous: true,
	})
	require.NoError(t, err)
}

func TestSQLiteStoreCircles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	createCircle(t, store, "c1", "First")
	require.NoError(t, store.CreateCircle(ctx, &domain.Circle{
		CircleID: "c2",
		Name:     "Second",
		Category: domain.CategorySleep,
	}))

	err := store.CreateCircle(ctx, &domain.Circle{CircleID: "c3", Name: "First", Category: domain.CategoryGeneral})
	assert.True(t, IsUniqueViolation(err), "circle names are unique, got %v", err)

	got, err := store.GetCircle(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Name)
	assert.True(t, got.IsAnonymous)
	assert.Equal(t, domain.DefaultMaxMembers, got.MaxMembers)

	missing, err := store.GetCircle(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	sleep, err := store.ListCircles(ctx, domain.CategorySleep)
	require.NoError(t, err)
	require.Len(t, sleep, 1)
	assert.Equal(t, "c2", sleep[0].CircleID)
}

func TestSQLiteStoreCircleMembers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	createCircle(t, store, "c1", "First")

	require.NoError(t, store.AddCircleMember(ctx, "c1", domain.Member{AnonymousID: "anon42"}))
	require.NoError(t, store.AddCircleMember(ctx, "c1", domain.Member{AnonymousID: "anon42"}))
	require.NoError(t, store.AddCircleMember(ctx, "c1", domain.Member{AnonymousID: "anon7", UserID: "u7"}))

	got, err := store.GetCircle(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalMembers)
	require.Len(t, got.Members, 2)

	settings, err := store.GetCircleSettings(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.DefaultMaxMembers, settings.MaxMembers)
	assert.True(t, settings.IsAnonymous)
	assert.Equal(t, 2, settings.TotalMembers)
	assert.Empty(t, settings.Members)

	missing, err := store.GetCircleSettings(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = store.AddCircleMember(ctx, "missing", domain.Member{AnonymousID: "anon42"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = store.AddCircleMember(ctx, "c1", domain.Member{})
	assert.True(t, domain.IsValidation(err))
}

func TestSQLiteStoreAppendMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	createCircle(t, store, "c1", "First")

	msg := &domain.Message{
		CircleID:  "c1",
		Author:    domain.Author{AnonymousID: "anon42"},
		Text:      "feeling low today",
		Emotion:   domain.EmotionSad,
		Sentiment: &domain.Sentiment{Score: -0.4, Label: domain.SentimentNegative},
	}
	require.NoError(t, store.AppendMessage(ctx, msg))
	assert.NotEmpty(t, msg.MessageID)
	assert.False(t, msg.CreatedAt.IsZero())

	got, err := store.GetMessage(ctx, msg.MessageID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "feeling low today", got.Text)
	assert.Equal(t, domain.EmotionSad, got.Emotion)
	assert.Equal(t, "anon42", got.AnonymousID)
	assert.Equal(t, 0, got.Likes)
	assert.Empty(t, got.Replies)
	require.NotNil(t, got.Sentiment)
	assert.Equal(t, domain.SentimentNegative, got.Sentiment.Label)
	assert.True(t, got.CreatedAt.Equal(msg.CreatedAt))

	circle, err := store.GetCircle(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, circle.TotalMessages)
}

func TestSQLiteStoreListMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		msg := &domain.Message{CircleID: "c1", Author: domain.Author{AnonymousID: "a"}, Text: text}
		require.NoError(t, store.AppendMessage(ctx, msg))
		ids = append(ids, msg.MessageID)
	}
	other := &domain.Message{CircleID: "c2", Author: domain.Author{AnonymousID: "a"}, Text: "elsewhere"}
	require.NoError(t, store.AppendMessage(ctx, other))

	messages, err := store.ListMessages(ctx, "c1", 10, "")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "three", messages[0].Text)
	assert.Equal(t, "one", messages[2].Text)

	page, err := store.ListMessages(ctx, "c1", 1, ids[2])
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two", page[0].Text)
}

func TestSQLiteStoreIncrementLikes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	msg := &domain.Message{CircleID: "c1", Author: domain.Author{AnonymousID: "a"}, Text: "hi"}
	require.NoError(t, store.AppendMessage(ctx, msg))

	found, err := store.IncrementLikes(ctx, msg.MessageID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.IncrementLikes(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, found)

	got, err := store.GetMessage(ctx, msg.MessageID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
}

func TestSQLiteStoreConcurrentLikesAreAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	msg := &domain.Message{CircleID: "c1", Author: domain.Author{AnonymousID: "a"}, Text: "hi"}
	require.NoError(t, store.AppendMessage(ctx, msg))

	const n = 50
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := store.IncrementLikes(ctx, msg.MessageID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := store.GetMessage(ctx, msg.MessageID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes)
}

func TestSQLiteStoreAppendReply(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	msg := &domain.Message{CircleID: "c1", Author: domain.Author{AnonymousID: "a"}, Text: "hi"}
	require.NoError(t, store.AppendMessage(ctx, msg))

	found, err := store.AppendReply(ctx, msg.MessageID, domain.Reply{Author: domain.Author{AnonymousID: "b"}, Text: "you are not alone"})
	require.NoError(t, err)
	assert.True(t, found)
	found, err = store.AppendReply(ctx, msg.MessageID, domain.Reply{Author: domain.Author{UserID: "u1"}, Text: "same here"})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.AppendReply(ctx, "missing", domain.Reply{Author: domain.Author{AnonymousID: "b"}, Text: "x"})
	require.NoError(t, err)
	assert.False(t, found)

	got, err := store.GetMessage(ctx, msg.MessageID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 2)
	assert.Equal(t, 2, got.SupportiveReplies)
	assert.Equal(t, "you are not alone", got.Replies[0].Text)
	assert.Equal(t, "b", got.Replies[0].AnonymousID)
	assert.Equal(t, "u1", got.Replies[1].UserID)
	assert.False(t, got.Replies[1].CreatedAt.IsZero())
}

func TestSQLiteStoreMoods(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	now := time.Now()
	old := &domain.Mood{MoodID: "m0", UserID: "u1", MoodScore: 2, MoodEmoji: "😞", LoggedAt: now.AddDate(0, 0, -40), CreatedAt: now.AddDate(0, 0, -40)}
	recent := &domain.Mood{
		MoodID:     "m1",
		UserID:     "u1",
		MoodScore:  8,
		MoodEmoji:  "😊",
		Activities: []string{"exercise"},
		Triggers:   []string{"sunshine"},
		Notes:      "great run",
		Sentiment:  &domain.Sentiment{Score: 0.6, Label: domain.SentimentPositive},
		AIInsights: &domain.Insights{Pattern: "p", Suggestion: "s", Affirmation: "a"},
		LoggedAt:   now,
		CreatedAt:  now,
	}
	other := &domain.Mood{MoodID: "m2", UserID: "u2", MoodScore: 5, MoodEmoji: "😐", LoggedAt: now, CreatedAt: now}
	for _, m := range []*domain.Mood{old, recent, other} {
		require.NoError(t, store.CreateMood(ctx, m))
	}

	moods, err := store.ListMoods(ctx, "u1", now.AddDate(0, 0, -30), 50)
	require.NoError(t, err)
	require.Len(t, moods, 1)
	got := moods[0]
	assert.Equal(t, "m1", got.MoodID)
	assert.Equal(t, []string{"exercise"}, got.Activities)
	assert.Equal(t, []string{"sunshine"}, got.Triggers)
	require.NotNil(t, got.Sentiment)
	require.NotNil(t, got.AIInsights)
	assert.Equal(t, "p", got.AIInsights.Pattern)

	all, err := store.ListMoods(ctx, "u1", time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStoreJournals(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	now := time.Now()
	first := &domain.JournalEntry{JournalID: "j1", UserID: "u1", Title: "Monday", Content: "a long enough entry", CreatedAt: now.Add(-time.Hour), IsPrivate: true}
	second := &domain.JournalEntry{
		JournalID:   "j2",
		UserID:      "u1",
		Title:       "Tuesday",
		Content:     "feeling grateful and calm",
		MoodAtTime:  7,
		Category:    domain.JournalCategoryGratitude,
		Tags:        []string{"family"},
		Emotions:    []string{"grateful", "calm"},
		Affirmation: "You are doing your best.",
		CreatedAt:   now,
	}
	require.NoError(t, store.CreateJournal(ctx, first))
	require.NoError(t, store.CreateJournal(ctx, second))

	entries, err := store.ListJournals(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "j2", entries[0].JournalID)
	assert.Equal(t, 7, entries[0].MoodAtTime)
	assert.Equal(t, []string{"grateful", "calm"}, entries[0].Emotions)
	assert.False(t, entries[0].IsPrivate)
	assert.True(t, entries[1].IsPrivate)
}
