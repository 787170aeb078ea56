// Package insight holds the canned wellness texts and keyword lookups used
// to annotate moods, journal entries and circle messages.
package insight

import (
	"strings"
	"unicode"

	"github.com/xiaot623/serenai/internal/domain"
)

// lexicon holds word valences in [-5, 5]. Values follow the AFINN-165 word
// list (Nielsen, 2011; extended 2015); "serene", "tranquil", "low" and "down"
// are local additions for the mood vocabulary.
var lexicon = map[string]int{
	"abandoned": -2, "afraid": -2, "alone": -2, "angry": -3, "anxious": -2,
	"ashamed": -2, "awful": -3, "bad": -3, "blessed": 2, "broken": -1,
	"calm": 2, "cheerful": 2, "confident": 2, "cry": -1, "crying": -2,
	"depressed": -2, "desperate": -3, "down": -1, "excited": 3, "exhausted": -2,
	"fail": -2, "failed": -2, "fantastic": 4, "fear": -2, "fine": 2,
	"furious": -3, "glad": 3, "good": 3, "grateful": 3, "great": 3,
	"guilty": -3, "happy": 3, "hate": -3, "helpless": -2, "hope": 2,
	"hopeful": 2, "hopeless": -2, "hurt": -2, "irritated": -3, "joy": 3,
	"joyful": 3, "lonely": -2, "love": 3, "loved": 3, "low": -1,
	"mad": -3, "miserable": -3, "nervous": -2, "ok": 1, "okay": 1,
	"overwhelmed": -2, "pain": -2, "panic": -3, "peaceful": 2, "proud": 2,
	"relaxed": 2, "relieved": 2, "sad": -2, "scared": -2, "serene": 2,
	"stressed": -2, "strong": 2, "support": 2, "supported": 2, "terrible": -3,
	"thankful": 2, "tired": -2, "tranquil": 2, "upset": -2, "useless": -2,
	"wonderful": 4, "worried": -3, "worthless": -2,
}

// negators flip the valence of the following word.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "dont": true, "don't": true,
	"cant": true, "can't": true, "isnt": true, "isn't": true,
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

// AnalyzeSentiment scores text against the lexicon. Score is the raw valence sum
// divided by five, so it usually falls in [-1, 1] but is not bounded; the label
// is taken from the sign of the raw sum. Empty text yields nil.
func AnalyzeSentiment(text string) *domain.Sentiment {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	raw := 0
	for i, tok := range tokens {
		v, ok := lexicon[tok]
		if !ok {
			continue
		}
		if i > 0 && negators[tokens[i-1]] {
			v = -v
		}
		raw += v
	}

	label := domain.SentimentNeutral
	switch {
	case raw > 0:
		label = domain.SentimentPositive
	case raw < 0:
		label = domain.SentimentNegative
	}

	return &domain.Sentiment{
		Score:       float64(raw) / 5,
		Label:       label,
		Comparative: float64(raw) / float64(len(tokens)),
	}
}
