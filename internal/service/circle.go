package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/insight"
	"github.com/xiaot623/serenai/internal/policy"
)

// Message listing bounds.
const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

// PostMessageRequest is a circle post from a live connection.
type PostMessageRequest struct {
	CircleID    string
	AnonymousID string
	Text        string
	Emotion     domain.Emotion
}

// CheckJoin evaluates the join policy for a pseudonym entering a circle that
// currently has liveMembers connections. A denial wraps domain.ErrJoinDenied.
func (s *Service) CheckJoin(ctx context.Context, circleID, anonymousID string, liveMembers int) error {
	if circleID == "" {
		return domain.Invalid("circleId", "is required")
	}
	if anonymousID == "" {
		return domain.Invalid("anonymousId", "is required")
	}

	input := policy.JoinInput{
		CircleID:    circleID,
		AnonymousID: anonymousID,
		LiveMembers: liveMembers,
	}
	circle, err := s.store.GetCircleSettings(ctx, circleID)
	if err != nil {
		return fmt.Errorf("failed to load circle: %w", err)
	}
	if circle != nil {
		input.Circle = policy.CircleInfo{
			Exists:      true,
			MaxMembers:  circle.MaxMembers,
			IsPrivate:   circle.IsPrivate,
			IsAnonymous: circle.IsAnonymous,
		}
	}

	result, err := s.policyEngine.EvaluateJoin(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to evaluate join policy: %w", err)
	}
	if !result.Allowed() {
		reason := result.Reason
		if reason == "" {
			reason = "denied by policy"
		}
		return fmt.Errorf("%w: %s", domain.ErrJoinDenied, reason)
	}
	return nil
}

// RecordMembership adds the pseudonym to the circle's member cache. Failures
// are logged and swallowed; the cache is approximate.
func (s *Service) RecordMembership(ctx context.Context, circleID, anonymousID string) {
	err := s.store.AddCircleMember(ctx, circleID, domain.Member{
		AnonymousID: anonymousID,
		JoinedAt:    time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to record circle member",
			zap.String("circle_id", circleID),
			zap.String("anonymous_id", anonymousID),
			zap.Error(err))
	}
}

// PostMessage validates and persists a circle message. Store failures wrap
// domain.ErrPersistenceFailed; bad input returns a *domain.ValidationError.
func (s *Service) PostMessage(ctx context.Context, req PostMessageRequest) (*domain.Message, error) {
	if req.CircleID == "" {
		return nil, domain.Invalid("circleId", "is required")
	}
	author := domain.Author{AnonymousID: req.AnonymousID}
	if err := author.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateText("message", req.Text); err != nil {
		return nil, err
	}
	if !req.Emotion.Valid() {
		return nil, domain.Invalid("emotion", "unknown emotion "+string(req.Emotion))
	}

	msg := &domain.Message{
		CircleID:  req.CircleID,
		Author:    author,
		Text:      req.Text,
		Emotion:   req.Emotion,
		Sentiment: insight.AnalyzeSentiment(req.Text),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	return msg, nil
}

// LikeMessage adds one like. A missing message is not an error; it reports
// whether a message was updated.
func (s *Service) LikeMessage(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, domain.Invalid("messageId", "is required")
	}
	ok, err := s.store.IncrementLikes(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	if !ok {
		s.logger.Debug("like for unknown message", zap.String("message_id", messageID))
	}
	return ok, nil
}

func (s *Service) ListCircles(ctx context.Context, category domain.Category) ([]domain.Circle, error) {
	if category != "" && !category.Valid() {
		return nil, domain.Invalid("category", "unknown category "+string(category))
	}
	circles, err := s.store.ListCircles(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	return circles, nil
}

// GetCircle returns a circle or domain.ErrNotFound.
func (s *Service) GetCircle(ctx context.Context, circleID string) (*domain.Circle, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}
	if circle == nil {
		return nil, domain.ErrNotFound
	}
	return circle, nil
}

// ListMessages returns up to limit messages older than before, newest first,
// and whether more remain.
func (s *Service) ListMessages(ctx context.Context, circleID string, limit int, before string) ([]domain.Message, bool, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	messages, err := s.store.ListMessages(ctx, circleID, limit+1, before)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list messages: %w", err)
	}
	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	return messages, hasMore, nil
}

// AddReplyRequest is a reply posted over HTTP.
type AddReplyRequest struct {
	CircleID    string
	MessageID   string
	UserID      string // authenticated account
	AnonymousID string
	Text        string
}

// AddReply appends a reply. In identified circles the author is the account;
// otherwise it is the pseudonym, which is then required.
func (s *Service) AddReply(ctx context.Context, req AddReplyRequest) (*domain.Message, error) {
	if err := domain.ValidateText("message", req.Text); err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessage(ctx, req.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if msg == nil || msg.CircleID != req.CircleID {
		return nil, domain.ErrNotFound
	}

	circle, err := s.store.GetCircleSettings(ctx, req.CircleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}

	var author domain.Author
	if circle != nil && !circle.IsAnonymous {
		author.UserID = req.UserID
	} else {
		author.AnonymousID = strings.TrimSpace(req.AnonymousID)
	}
	if err := author.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.store.AppendReply(ctx, req.MessageID, domain.Reply{
		Author:    author,
		Text:      req.Text,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	updated, err := s.store.GetMessage(ctx, req.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload message: %w", err)
	}
	if updated == nil {
		return nil, errors.New("message vanished after reply")
	}
	return updated, nil
}
