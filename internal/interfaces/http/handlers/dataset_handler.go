package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calledstrike/szas/internal/application/dataset"
	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/pkg/errors"
)

// DatasetHandler serves the archive catalog and import endpoints.
type DatasetHandler struct {
	service dataset.Service
}

func NewDatasetHandler(service dataset.Service) *DatasetHandler {
	return &DatasetHandler{service: service}
}

// Batters handles GET /api/v1/catalog/batters.
func (h *DatasetHandler) Batters(c *gin.Context) {
	season, err := queryInt(c, "season")
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	batters, err := h.service.Batters(c.Request.Context(), season, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batters": batters})
}

// Umpires handles GET /api/v1/catalog/umpires.
func (h *DatasetHandler) Umpires(c *gin.Context) {
	season, err := queryInt(c, "season")
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	umpires, err := h.service.Umpires(c.Request.Context(), season, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"umpires": umpires})
}

// Summary handles GET /api/v1/catalog/summary.
func (h *DatasetHandler) Summary(c *gin.Context) {
	season, err := queryInt(c, "season")
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), season)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Seasons handles GET /api/v1/catalog/seasons.
func (h *DatasetHandler) Seasons(c *gin.Context) {
	seasons, err := h.service.Seasons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seasons": seasons})
}

// Preview handles GET /api/v1/catalog/preview, reporting how many pitches a
// filter would select.
func (h *DatasetHandler) Preview(c *gin.Context) {
	batterID, err := queryInt64(c, "batter_id")
	if err != nil {
		respondError(c, err)
		return
	}
	umpireID, err := queryInt64(c, "umpire_id")
	if err != nil {
		respondError(c, err)
		return
	}
	season, err := queryInt(c, "season")
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.service.PreviewCount(c.Request.Context(), pitch.Filter{
		BatterID: batterID,
		UmpireID: umpireID,
		Season:   season,
		Side:     c.Query("side"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	minimum := pitch.MinTakes + pitch.MinSwings
	c.JSON(http.StatusOK, gin.H{
		"count":      count,
		"sufficient": count >= minimum,
		"minimum":    minimum,
	})
}

// Snapshots handles GET /api/v1/imports/snapshots.
func (h *DatasetHandler) Snapshots(c *gin.Context) {
	snapshots, err := h.service.ListSnapshots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// UploadSnapshot handles POST /api/v1/imports/snapshots/:season. The body
// is the raw CSV snapshot.
func (h *DatasetHandler) UploadSnapshot(c *gin.Context) {
	season, err := pathInt(c, "season")
	if err != nil {
		respondError(c, err)
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, errors.Validation("failed to read request body"))
		return
	}
	records, err := dataset.DecodeSnapshot(body)
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := h.service.UploadSnapshot(c.Request.Context(), season, records)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

type importRequest struct {
	Season int `json:"season"`
}

// RequestImport handles POST /api/v1/imports.
func (h *DatasetHandler) RequestImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("request body must be valid JSON"))
		return
	}
	eventID, err := h.service.RequestImport(c.Request.Context(), req.Season)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"event_id": eventID, "season": req.Season})
}
