// Package domain defines the core domain models for circles, moods and journals.
package domain

// Category is the topic tag of a circle.
type Category string

const (
	CategoryAnxiety       Category = "anxiety"
	CategoryDepression    Category = "depression"
	CategoryStress        Category = "stress"
	CategoryJoy           Category = "joy"
	CategoryGratitude     Category = "gratitude"
	CategorySleep         Category = "sleep"
	CategoryRelationships Category = "relationships"
	CategoryWork          Category = "work"
	CategoryGeneral       Category = "general"
)

var circleCategories = map[Category]bool{
	CategoryAnxiety:       true,
	CategoryDepression:    true,
	CategoryStress:        true,
	CategoryJoy:           true,
	CategoryGratitude:     true,
	CategorySleep:         true,
	CategoryRelationships: true,
	CategoryWork:          true,
	CategoryGeneral:       true,
}

// Valid reports whether c is a known circle category.
func (c Category) Valid() bool {
	return circleCategories[c]
}

// Emotion is the optional emotion tag on a circle message.
type Emotion string

const (
	EmotionHappy       Emotion = "happy"
	EmotionSad         Emotion = "sad"
	EmotionAnxious     Emotion = "anxious"
	EmotionCalm        Emotion = "calm"
	EmotionAngry       Emotion = "angry"
	EmotionGrateful    Emotion = "grateful"
	EmotionOverwhelmed Emotion = "overwhelmed"
	EmotionMotivated   Emotion = "motivated"
)

var emotions = map[Emotion]bool{
	EmotionHappy:       true,
	EmotionSad:         true,
	EmotionAnxious:     true,
	EmotionCalm:        true,
	EmotionAngry:       true,
	EmotionGrateful:    true,
	EmotionOverwhelmed: true,
	EmotionMotivated:   true,
}

// Valid reports whether e is one of the eight message emotions.
// The empty emotion is valid because the tag is optional.
func (e Emotion) Valid() bool {
	return e == "" || emotions[e]
}

// SentimentLabel buckets a sentiment score.
type SentimentLabel string

const (
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentPositive SentimentLabel = "positive"
)

// JournalCategory is the category of a journal entry.
type JournalCategory string

const (
	JournalCategoryAnxiety     JournalCategory = "anxiety"
	JournalCategoryDepression  JournalCategory = "depression"
	JournalCategoryStress      JournalCategory = "stress"
	JournalCategoryJoy         JournalCategory = "joy"
	JournalCategoryGratitude   JournalCategory = "gratitude"
	JournalCategoryAchievement JournalCategory = "achievement"
	JournalCategoryReflection  JournalCategory = "reflection"
	JournalCategoryOther       JournalCategory = "other"
)

var journalCategories = map[JournalCategory]bool{
	JournalCategoryAnxiety:     true,
	JournalCategoryDepression:  true,
	JournalCategoryStress:      true,
	JournalCategoryJoy:         true,
	JournalCategoryGratitude:   true,
	JournalCategoryAchievement: true,
	JournalCategoryReflection:  true,
	JournalCategoryOther:       true,
}

// Valid reports whether c is a known journal category. Empty is allowed.
func (c JournalCategory) Valid() bool {
	return c == "" || journalCategories[c]
}

// MoodEmojis lists the accepted mood emoji, saddest first.
var MoodEmojis = []string{"😢", "😞", "😐", "🙂", "😊", "😄"}

// ValidMoodEmoji reports whether s is one of MoodEmojis.
func ValidMoodEmoji(s string) bool {
	for _, e := range MoodEmojis {
		if e == s {
			return true
		}
	}
	return false
}
