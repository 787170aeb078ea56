package domain

import "time"

// Circle limits.
const (
	MaxCircleNameLength = 100
	DefaultMaxMembers   = 1000
)

// Circle is a named peer-support room.
type Circle struct {
	CircleID      string    `json:"circle_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      Category  `json:"category"`
	IsPrivate     bool      `json:"is_private"`
	IsAnonymous   bool      `json:"is_anonymous"`
	MaxMembers    int       `json:"max_members"`
	Members       []Member  `json:"members,omitempty"`
	TotalMembers  int       `json:"total_members"`
	TotalMessages int       `json:"total_messages"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Member is an entry in a circle's member cache: everyone who has ever joined.
type Member struct {
	UserID      string    `json:"user_id,omitempty"`
	AnonymousID string    `json:"anonymous_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Validate checks the fields required to create a circle.
func (c *Circle) Validate() error {
	if c.CircleID == "" {
		return Invalid("id", "is required")
	}
	if c.Name == "" {
		return Invalid("name", "is required")
	}
	if len([]rune(c.Name)) > MaxCircleNameLength {
		return Invalid("name", "is too long")
	}
	if !c.Category.Valid() {
		return Invalid("category", "unknown category "+string(c.Category))
	}
	if c.MaxMembers < 0 {
		return Invalid("max_members", "must not be negative")
	}
	return nil
}
