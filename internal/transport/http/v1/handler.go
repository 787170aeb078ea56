// Package v1 provides the versioned REST handlers.
package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/serenai/internal/auth"
	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/service"
)

// LiveCounter reports live connections per circle.
type LiveCounter interface {
	MemberCount(circleID string) int
}

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	live     LiveCounter
	verifier *auth.Verifier
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, live LiveCounter, verifier *auth.Verifier) *Handler {
	return &Handler{
		service:  svc,
		live:     live,
		verifier: verifier,
	}
}

// RegisterRoutes registers the /v1 routes on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	authed := h.verifier.Middleware()

	// Circles
	g.GET("/circles", h.ListCircles)
	g.GET("/circles/:circle_id", h.GetCircle)
	g.GET("/circles/:circle_id/messages", h.ListMessages)
	g.POST("/circles/:circle_id/messages/:message_id/replies", h.AddReply, authed)

	// Moods
	g.POST("/moods", h.LogMood, authed)
	g.GET("/moods/history", h.MoodHistory, authed)
	g.GET("/moods/statistics", h.MoodStatistics, authed)

	// Journals
	g.POST("/journals", h.CreateJournal, authed)
	g.GET("/journals", h.ListJournals, authed)

	// Canned insights
	g.GET("/ai/affirmation", h.GetAffirmation)
	g.POST("/ai/emotions", h.DetectEmotions)
}

// Health returns health status.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// serviceError maps service errors onto status codes.
func serviceError(c echo.Context, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return errorJSON(c, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "not found")
	default:
		c.Logger().Errorf("request failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal server error")
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, defaultVal int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.Invalid(name, "must be a non-negative integer")
	}
	return n, nil
}
