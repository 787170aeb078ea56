package insight

import (
	"math/rand/v2"
	"strings"

	"github.com/xiaot623/serenai/internal/domain"
)

type band struct {
	min         int
	pattern     string
	suggestion  string
	affirmation string
}

// bands are checked top down; the first whose min the score reaches wins.
var bands = []band{
	{8, "You seem to be having an excellent day!",
		"Keep enjoying this positive energy! Consider sharing your joy with others.",
		"Your positive mindset is inspiring!"},
	{6, "Your mood is positive and stable.",
		"Continue what you're doing! Maybe try a new activity you enjoy.",
		"You are handling things well."},
	{5, "You are managing well with some ups and downs.",
		"Take time for self-care. A short walk or meditation might help.",
		"You are resilient and capable."},
	{3, "You might be feeling some challenges today.",
		"Be kind to yourself. Consider reaching out to someone you trust.",
		"It's okay to struggle sometimes."},
	{0, "You seem to be going through a tough time.",
		"Please consider contacting a mental health professional or crisis line.",
		"Your feelings are valid, and you deserve support."},
}

func bandFor(moodScore int) band {
	for _, b := range bands {
		if moodScore >= b.min {
			return b
		}
	}
	return bands[len(bands)-1]
}

// GenerateInsights returns the canned pattern, suggestion and affirmation for a mood score.
func GenerateInsights(moodScore int) *domain.Insights {
	b := bandFor(moodScore)
	return &domain.Insights{
		Pattern:     b.pattern,
		Suggestion:  b.suggestion,
		Affirmation: b.affirmation,
	}
}

// Affirmation buckets.
const (
	BucketPositive = "positive"
	BucketNeutral  = "neutral"
	BucketNegative = "negative"
)

var affirmations = map[string][]string{
	BucketPositive: {
		"You are stronger than you think.",
		"Your feelings are valid and important.",
		"Every day is a fresh start.",
		"You deserve to be happy and healthy.",
		"Progress, not perfection, is the goal.",
		"You are worthy of love and compassion.",
	},
	BucketNeutral: {
		"It's okay to have mixed feelings.",
		"Take things one step at a time.",
		"Your feelings will pass.",
		"You are doing your best.",
		"Self-care is not selfish.",
		"You are growing every day.",
	},
	BucketNegative: {
		"This feeling will not last forever.",
		"You have overcome difficult times before.",
		"Reaching out for help is a sign of strength.",
		"You matter, and your well-being is important.",
		"Small steps lead to big changes.",
		"Be gentle with yourself.",
	},
}

// AffirmationBucket maps a mood score to an affirmation bucket.
func AffirmationBucket(moodScore int) string {
	switch {
	case moodScore >= 7:
		return BucketPositive
	case moodScore <= 3:
		return BucketNegative
	default:
		return BucketNeutral
	}
}

// Affirmations returns the affirmations of a bucket.
func Affirmations(bucket string) []string {
	return affirmations[bucket]
}

// Affirmation picks a random affirmation from the bucket of moodScore.
func Affirmation(moodScore int) string {
	list := affirmations[AffirmationBucket(moodScore)]
	return list[rand.IntN(len(list))]
}

var mbtiTypes = map[string]bool{
	"ENFP": true, "ENFJ": true, "ENTJ": true, "ENTP": true,
	"ESFP": true, "ESFJ": true, "ESTJ": true, "ESTP": true,
	"INFP": true, "INFJ": true, "INTJ": true, "INTP": true,
	"ISFP": true, "ISFJ": true, "ISTJ": true, "ISTP": true,
}

// ValidMBTI reports whether s is one of the sixteen MBTI types (case-insensitive).
func ValidMBTI(s string) bool {
	return mbtiTypes[strings.ToUpper(s)]
}
