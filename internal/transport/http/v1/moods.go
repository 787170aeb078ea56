package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/serenai/internal/auth"
	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/service"
)

// LogMood records a mood for the caller.
// POST /v1/moods
func (h *Handler) LogMood(c echo.Context) error {
	var req domain.LogMoodRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	mood, err := h.service.LogMood(c.Request().Context(), auth.UserIDFromContext(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Mood logged successfully",
		"mood":    mood,
	})
}

// MoodHistory lists the caller's recent moods.
// GET /v1/moods/history
func (h *Handler) MoodHistory(c echo.Context) error {
	days, err := queryInt(c, "days", service.DefaultMoodDays)
	if err != nil {
		return serviceError(c, err)
	}
	limit, err := queryInt(c, "limit", service.DefaultMoodLimit)
	if err != nil {
		return serviceError(c, err)
	}

	moods, err := h.service.MoodHistory(c.Request().Context(), auth.UserIDFromContext(c), days, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(moods),
		"moods": moods,
	})
}

// MoodStatistics summarizes the caller's recent moods.
// GET /v1/moods/statistics
func (h *Handler) MoodStatistics(c echo.Context) error {
	days, err := queryInt(c, "days", service.DefaultMoodDays)
	if err != nil {
		return serviceError(c, err)
	}

	stats, err := h.service.MoodStatistics(c.Request().Context(), auth.UserIDFromContext(c), days)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}
