package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/serenai/internal/domain"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		text  string
		label domain.SentimentLabel
		score float64
	}{
		{"I feel happy and grateful today", domain.SentimentPositive, 1.2},
		{"feeling low today", domain.SentimentNegative, -0.2},
		{"I am not happy", domain.SentimentNegative, -0.6},
		{"went to the store", domain.SentimentNeutral, 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := AnalyzeSentiment(tt.text)
			require.NotNil(t, s)
			assert.Equal(t, tt.label, s.Label)
			assert.InDelta(t, tt.score, s.Score, 1e-9)
		})
	}

	assert.Nil(t, AnalyzeSentiment("   "))
}

func TestAnalyzeSentimentScoreIsUnbounded(t *testing.T) {
	s := AnalyzeSentiment("wonderful fantastic wonderful fantastic")
	require.NotNil(t, s)
	assert.Equal(t, 3.2, s.Score)
	assert.Equal(t, 4.0, s.Comparative)
}

func TestGenerateInsightsBands(t *testing.T) {
	assert.Equal(t, "You seem to be having an excellent day!", GenerateInsights(9).Pattern)
	assert.Equal(t, "Your mood is positive and stable.", GenerateInsights(6).Pattern)
	assert.Equal(t, "You are resilient and capable.", GenerateInsights(5).Affirmation)
	assert.Equal(t, "It's okay to struggle sometimes.", GenerateInsights(3).Affirmation)
	assert.Equal(t, "Please consider contacting a mental health professional or crisis line.", GenerateInsights(1).Suggestion)
}

func TestAffirmationBuckets(t *testing.T) {
	assert.Equal(t, BucketPositive, AffirmationBucket(7))
	assert.Equal(t, BucketNeutral, AffirmationBucket(5))
	assert.Equal(t, BucketNegative, AffirmationBucket(3))

	for i := 0; i < 20; i++ {
		assert.Contains(t, Affirmations(BucketNegative), Affirmation(2))
	}
}

func TestDetectEmotionsAndRecommendations(t *testing.T) {
	emotions := DetectEmotions("I was worried all morning but now I feel calm and thankful")
	assert.Equal(t, []string{"anxious", "calm", "grateful"}, emotions)

	actions := ActionRecommendations(emotions)
	assert.Equal(t, []string{"Practice deep breathing", "Go for a walk", "Talk to someone"}, actions)

	assert.Empty(t, DetectEmotions("nothing to see"))
	assert.Empty(t, ActionRecommendations(nil))
}

func TestValidMBTI(t *testing.T) {
	assert.True(t, ValidMBTI("infj"))
	assert.False(t, ValidMBTI("ABCD"))
}
