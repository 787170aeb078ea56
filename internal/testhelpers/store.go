// Package testhelpers provides shared fixtures for package tests.
package testhelpers

import (
	"context"
	"testing"

	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/repository"
)

// NewTestSQLiteStore returns an in-memory store closed at test cleanup.
func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// CreateCircle inserts an anonymous general circle with the given id and name.
func CreateCircle(t *testing.T, s repository.Store, circleID, name string) *domain.Circle {
	t.Helper()

	c := &domain.Circle{
		CircleID:    circleID,
		Name:        name,
		Category:    domain.CategoryGeneral,
		IsAnonymous: true,
	}
	if err := s.CreateCircle(context.Background(), c); err != nil {
		t.Fatalf("CreateCircle(%s): %v", circleID, err)
	}
	return c
}
