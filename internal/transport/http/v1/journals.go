package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/serenai/internal/auth"
	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/service"
)

// CreateJournal stores a journal entry for the caller.
// POST /v1/journals
func (h *Handler) CreateJournal(c echo.Context) error {
	var req domain.CreateJournalRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	entry, err := h.service.CreateJournal(c.Request().Context(), auth.UserIDFromContext(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"journal": entry,
	})
}

// ListJournals lists the caller's entries, newest first.
// GET /v1/journals
func (h *Handler) ListJournals(c echo.Context) error {
	limit, err := queryInt(c, "limit", service.DefaultJournalLimit)
	if err != nil {
		return serviceError(c, err)
	}

	entries, err := h.service.ListJournals(c.Request().Context(), auth.UserIDFromContext(c), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(entries),
		"journals": entries,
	})
}
