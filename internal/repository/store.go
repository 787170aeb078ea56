// Package repository defines the storage interface and its SQLite implementation.
package repository

import (
	"context"
	"time"

	"github.com/xiaot623/serenai/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Circle operations
	CreateCircle(ctx context.Context, circle *domain.Circle) error
	GetCircle(ctx context.Context, circleID string) (*domain.Circle, error)
	GetCircleSettings(ctx context.Context, circleID string) (*domain.Circle, error)
	ListCircles(ctx context.Context, category domain.Category) ([]domain.Circle, error)
	AddCircleMember(ctx context.Context, circleID string, member domain.Member) error

	// Message operations
	AppendMessage(ctx context.Context, message *domain.Message) error
	GetMessage(ctx context.Context, messageID string) (*domain.Message, error)
	ListMessages(ctx context.Context, circleID string, limit int, before string) ([]domain.Message, error)
	IncrementLikes(ctx context.Context, messageID string) (bool, error)
	AppendReply(ctx context.Context, messageID string, reply domain.Reply) (bool, error)

	// Mood operations
	CreateMood(ctx context.Context, mood *domain.Mood) error
	ListMoods(ctx context.Context, userID string, since time.Time, limit int) ([]domain.Mood, error)

	// Journal operations
	CreateJournal(ctx context.Context, entry *domain.JournalEntry) error
	ListJournals(ctx context.Context, userID string, limit int) ([]domain.JournalEntry, error)

	// Lifecycle
	Close() error
}
