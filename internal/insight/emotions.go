package insight

import "strings"

type emotionKeywords struct {
	emotion  string
	keywords []string
}

var emotionTable = []emotionKeywords{
	{"happy", []string{"happy", "joyful", "excited", "great", "wonderful"}},
	{"sad", []string{"sad", "down", "blue", "depressed", "miserable"}},
	{"anxious", []string{"anxious", "worried", "nervous", "stressed", "tense"}},
	{"calm", []string{"calm", "peaceful", "relaxed", "serene", "tranquil"}},
	{"angry", []string{"angry", "furious", "mad", "upset", "irritated"}},
	{"grateful", []string{"grateful", "thankful", "appreciated", "blessed"}},
}

// DetectEmotions returns the emotions whose keywords occur in text, in table order.
// Matching is substring based, so "download" counts as "down".
func DetectEmotions(text string) []string {
	lower := strings.ToLower(text)
	detected := []string{}
	for _, row := range emotionTable {
		for _, kw := range row.keywords {
			if strings.Contains(lower, kw) {
				detected = append(detected, row.emotion)
				break
			}
		}
	}
	return detected
}

var recommendations = map[string][]string{
	"happy":    {"Share your joy with friends", "Start a new project", "Help someone in need"},
	"sad":      {"Express your feelings", "Reach out for support", "Do something gentle"},
	"anxious":  {"Practice deep breathing", "Go for a walk", "Talk to someone"},
	"calm":     {"Maintain this peace", "Practice gratitude", "Meditate"},
	"angry":    {"Take a break", "Physical exercise", "Write your feelings"},
	"grateful": {"Share appreciation", "Journaling", "Acts of kindness"},
}

// MaxRecommendations caps ActionRecommendations.
const MaxRecommendations = 3

// ActionRecommendations returns up to three distinct actions for the given emotions.
func ActionRecommendations(emotions []string) []string {
	seen := map[string]bool{}
	actions := []string{}
	for _, e := range emotions {
		for _, a := range recommendations[e] {
			if seen[a] {
				continue
			}
			seen[a] = true
			actions = append(actions, a)
			if len(actions) == MaxRecommendations {
				return actions
			}
		}
	}
	return actions
}
