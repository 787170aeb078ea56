package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/serenai/internal/domain"
)

func TestLoadDefaultCircleSeeds(t *testing.T) {
	circles, err := LoadCircleSeeds("")
	require.NoError(t, err)
	require.Len(t, circles, 9)

	byCategory := map[domain.Category]domain.Circle{}
	for _, c := range circles {
		byCategory[c.Category] = c
	}
	assert.True(t, byCategory[domain.CategoryAnxiety].IsAnonymous)
	assert.False(t, byCategory[domain.CategoryJoy].IsAnonymous)
	assert.Equal(t, domain.DefaultMaxMembers, byCategory[domain.CategorySleep].MaxMembers)
	assert.Equal(t, 5000, byCategory[domain.CategoryGeneral].MaxMembers)
}

func TestParseCircleSeedsRejectsUnknownCategory(t *testing.T) {
	_, err := ParseCircleSeeds([]byte(`
circles:
  - id: c1
    name: Somewhere
    category: astrology
`))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestSeedCirclesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	circles, err := LoadCircleSeeds("")
	require.NoError(t, err)

	created, err := store.SeedCircles(ctx, circles)
	require.NoError(t, err)
	assert.Equal(t, 9, created)

	created, err = store.SeedCircles(ctx, circles)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	all, err := store.ListCircles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 9)
}
