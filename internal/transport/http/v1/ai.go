package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/insight"
)

// GetAffirmation returns a canned affirmation for a mood score.
// GET /v1/ai/affirmation
func (h *Handler) GetAffirmation(c echo.Context) error {
	score, err := queryInt(c, "moodScore", 5)
	if err != nil {
		return serviceError(c, err)
	}
	if score < 1 || score > 10 {
		return serviceError(c, domain.Invalid("moodScore", "must be between 1 and 10"))
	}
	mbti := strings.ToUpper(c.QueryParam("mbti"))
	if mbti != "" && !insight.ValidMBTI(mbti) {
		return serviceError(c, domain.Invalid("mbti", "unknown personality type"))
	}

	resp := map[string]interface{}{
		"affirmation": insight.Affirmation(score),
		"bucket":      insight.AffirmationBucket(score),
	}
	if mbti != "" {
		resp["mbti"] = mbti
	}
	return c.JSON(http.StatusOK, resp)
}

// EmotionsRequest is the body of an emotion detection call.
type EmotionsRequest struct {
	Text string `json:"text"`
}

// DetectEmotions returns keyword-detected emotions and suggested actions.
// POST /v1/ai/emotions
func (h *Handler) DetectEmotions(c echo.Context) error {
	var req EmotionsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return serviceError(c, domain.Invalid("text", "is required"))
	}

	emotions := insight.DetectEmotions(req.Text)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"emotions":        emotions,
		"recommendations": insight.ActionRecommendations(emotions),
		"sentiment":       insight.AnalyzeSentiment(req.Text),
	})
}
