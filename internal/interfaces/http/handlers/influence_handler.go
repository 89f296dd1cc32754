package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/calledstrike/szas/internal/application/influence"
	"github.com/calledstrike/szas/pkg/errors"
)

// InfluenceHandler serves the influence regression endpoints.
type InfluenceHandler struct {
	service influence.Service
}

func NewInfluenceHandler(service influence.Service) *InfluenceHandler {
	return &InfluenceHandler{service: service}
}

// Analyze handles GET /api/v1/influence/:batter_id.
func (h *InfluenceHandler) Analyze(c *gin.Context) {
	batterID, err := queryInt64Param(c, "batter_id")
	if err != nil {
		respondError(c, err)
		return
	}
	season, err := queryInt(c, "season")
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), &influence.Input{
		BatterID: batterID,
		Season:   season,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzeBatch handles POST /api/v1/influence/batch.
func (h *InfluenceHandler) AnalyzeBatch(c *gin.Context) {
	var input influence.BatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.Validation("request body must be valid JSON"))
		return
	}

	result, err := h.service.AnalyzeBatch(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt64Param(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, errors.Validation(name + " must be an integer")
	}
	return v, nil
}
