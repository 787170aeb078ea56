// Package protocol defines the WebSocket event contract for mood circles.
package protocol

import "time"

// Event types from client to server
const (
	TypeJoinCircle  = "join-mood-circle"
	TypeSendMessage = "send-message"
	TypeLikeMessage = "like-message"
	TypeTyping      = "typing"
	TypeStopTyping  = "stop-typing"
	TypeLeaveCircle = "leave-mood-circle"
)

// Event types from server to clients
const (
	TypeMemberJoined   = "member-joined"
	TypeNewMessage     = "new-message"
	TypeMessageLiked   = "message-liked"
	TypeUserTyping     = "user-typing"
	TypeUserStopTyping = "user-stop-typing"
	TypeMemberLeft     = "member-left"
	TypeError          = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage    = "invalid_message"
	ErrorCodeValidationFailed  = "validation_failed"
	ErrorCodePersistenceFailed = "persistence_failed"
	ErrorCodeJoinDenied        = "join_denied"
	ErrorCodeRateLimited       = "rate_limited"
	ErrorCodeInternalError     = "internal_error"
)

// RawMessage is used for parsing incoming events before type dispatch.
type RawMessage struct {
	Type string `json:"type"`
}

// CircleRef carries the circle key. moodCircleId is accepted as an alias.
type CircleRef struct {
	CircleID     string `json:"circleId,omitempty"`
	MoodCircleID string `json:"moodCircleId,omitempty"`
}

// Circle returns the circle id, preferring circleId over the alias.
func (r CircleRef) Circle() string {
	if r.CircleID != "" {
		return r.CircleID
	}
	return r.MoodCircleID
}

// JoinMessage is sent by a client to join a circle.
type JoinMessage struct {
	CircleRef
	AnonymousID string `json:"anonymousId"`
}

// SendMessage is sent by a client to post to a circle.
type SendMessage struct {
	CircleRef
	AnonymousID string `json:"anonymousId"`
	Message     string `json:"message"`
	Emotion     string `json:"emotion,omitempty"`
}

// LikeMessage is sent by a client to like a message.
type LikeMessage struct {
	CircleRef
	MessageID string `json:"messageId"`
}

// TypingMessage is used for typing and stop-typing.
type TypingMessage struct {
	CircleRef
	AnonymousID string `json:"anonymousId"`
}

// LeaveMessage is sent by a client to leave a circle.
type LeaveMessage struct {
	CircleRef
	AnonymousID string `json:"anonymousId"`
}

// BaseEvent contains common fields for all server events.
type BaseEvent struct {
	Type     string `json:"type"`
	CircleID string `json:"circleId,omitempty"`
}

// MemberEvent is member-joined or member-left.
type MemberEvent struct {
	BaseEvent
	AnonymousID string    `json:"anonymousId"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessageEvent announces a persisted message.
type NewMessageEvent struct {
	BaseEvent
	MessageID   string    `json:"messageId"`
	AnonymousID string    `json:"anonymousId"`
	Message     string    `json:"message"`
	Emotion     string    `json:"emotion,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageLikedEvent announces a like.
type MessageLikedEvent struct {
	BaseEvent
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingEvent is user-typing or user-stop-typing.
type TypingEvent struct {
	BaseEvent
	AnonymousID string `json:"anonymousId"`
}

// ErrorMessage is sent to the originating connection only.
type ErrorMessage struct {
	BaseEvent
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError builds an error event.
func NewError(circleID, code, message string) ErrorMessage {
	return ErrorMessage{
		BaseEvent: BaseEvent{Type: TypeError, CircleID: circleID},
		Code:      code,
		Message:   message,
	}
}
