package domain

import (
	"time"
	"unicode/utf8"
)

// MaxMessageLength bounds message and reply text, counted in runes.
const MaxMessageLength = 500

// Author identifies who wrote a message or reply. Exactly one field is set:
// the account id in identified circles, the pseudonym in anonymous ones.
type Author struct {
	UserID      string `json:"user_id,omitempty"`
	AnonymousID string `json:"anonymous_id,omitempty"`
}

// Validate enforces that exactly one identity is present.
func (a Author) Validate() error {
	switch {
	case a.UserID == "" && a.AnonymousID == "":
		return Invalid("anonymousId", "is required")
	case a.UserID != "" && a.AnonymousID != "":
		return Invalid("author", "user id and pseudonym are mutually exclusive")
	}
	return nil
}

// Sentiment is a normalized sentiment score with its label.
type Sentiment struct {
	Score       float64        `json:"score"`
	Label       SentimentLabel `json:"label"`
	Comparative float64        `json:"comparative"`
}

// Message is a chat message posted to a circle.
type Message struct {
	MessageID         string     `json:"message_id"`
	CircleID          string     `json:"circle_id"`
	Author                       // embedded: user_id / anonymous_id
	Text              string     `json:"message"`
	Emotion           Emotion    `json:"emotion,omitempty"`
	Sentiment         *Sentiment `json:"sentiment,omitempty"`
	Likes             int        `json:"likes"`
	SupportiveReplies int        `json:"supportive_replies"`
	Replies           []Reply    `json:"replies"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Reply is a nested reply to a message.
type Reply struct {
	Author
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateText checks message or reply body bounds.
func ValidateText(field, text string) error {
	if text == "" {
		return Invalid(field, "is required")
	}
	if !utf8.ValidString(text) {
		return Invalid(field, "is not valid UTF-8")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return Invalid(field, "exceeds 500 characters")
	}
	return nil
}
