package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calledstrike/szas/internal/application/scoring"
)

// ScoreHandler serves the alignment score and surface endpoints.
type ScoreHandler struct {
	service scoring.Service
}

func NewScoreHandler(service scoring.Service) *ScoreHandler {
	return &ScoreHandler{service: service}
}

func scoreInput(c *gin.Context) (*scoring.Input, error) {
	batterID, err := queryInt64(c, "batter_id")
	if err != nil {
		return nil, err
	}
	umpireID, err := queryInt64(c, "umpire_id")
	if err != nil {
		return nil, err
	}
	season, err := queryInt(c, "season")
	if err != nil {
		return nil, err
	}
	return &scoring.Input{
		BatterID: batterID,
		UmpireID: umpireID,
		Season:   season,
		Side:     c.Query("side"),
	}, nil
}

// Score handles GET /api/v1/score.
func (h *ScoreHandler) Score(c *gin.Context) {
	input, err := scoreInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.service.Score(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Surfaces handles GET /api/v1/score/surfaces.
func (h *ScoreHandler) Surfaces(c *gin.Context) {
	input, err := scoreInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.service.Surfaces(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
