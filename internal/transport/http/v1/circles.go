package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/serenai/internal/auth"
	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/service"
)

// ListCircles lists circles, optionally by category.
// GET /v1/circles
func (h *Handler) ListCircles(c echo.Context) error {
	circles, err := h.service.ListCircles(c.Request().Context(), domain.Category(c.QueryParam("category")))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(circles),
		"circles": circles,
	})
}

// GetCircle returns a circle with its live member count.
// GET /v1/circles/:circle_id
func (h *Handler) GetCircle(c echo.Context) error {
	circleID := c.Param("circle_id")
	circle, err := h.service.GetCircle(c.Request().Context(), circleID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"circle":       circle,
		"live_members": h.live.MemberCount(circleID),
	})
}

// ListMessages returns a page of circle messages, newest first.
// GET /v1/circles/:circle_id/messages
func (h *Handler) ListMessages(c echo.Context) error {
	limit, err := queryInt(c, "limit", service.DefaultMessageLimit)
	if err != nil {
		return serviceError(c, err)
	}

	messages, hasMore, err := h.service.ListMessages(c.Request().Context(), c.Param("circle_id"), limit, c.QueryParam("before"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"has_more": hasMore,
	})
}

// ReplyRequest is the body of a reply.
type ReplyRequest struct {
	Message     string `json:"message"`
	AnonymousID string `json:"anonymousId"`
}

// AddReply appends a reply to a message.
// POST /v1/circles/:circle_id/messages/:message_id/replies
func (h *Handler) AddReply(c echo.Context) error {
	var req ReplyRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	msg, err := h.service.AddReply(c.Request().Context(), service.AddReplyRequest{
		CircleID:    c.Param("circle_id"),
		MessageID:   c.Param("message_id"),
		UserID:      auth.UserIDFromContext(c),
		AnonymousID: req.AnonymousID,
		Text:        req.Message,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}
