package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easymo/marketplace-core/internal/api/dto"
	"github.com/easymo/marketplace-core/internal/service/ranking"
	apperrors "github.com/easymo/marketplace-core/pkg/errors"
	"github.com/easymo/marketplace-core/pkg/logger"
)

// RankDrivers handles POST /v1/ranking/drivers
func (h *Handlers) RankDrivers(c *gin.Context) {
	var req dto.RankDriversRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	if h.MaxCandidates > 0 && len(req.Candidates) > h.MaxCandidates {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Too many candidates (max %d)", h.MaxCandidates)})
		return
	}

	// Missing strategy falls back to balanced; a present-but-unknown one
	// is rejected rather than silently rescored.
	strategy, err := ranking.ParseStrategy(req.Strategy)
	if err != nil {
		respondAppError(c, apperrors.NewAppError("UNKNOWN_STRATEGY", err.Error(), http.StatusBadRequest, err))
		return
	}

	startTime := time.Now()

	result, err := h.Ranking.RankDrivers(c.Request.Context(), req.ToCandidates(), strategy, req.Limit)
	if err != nil {
		h.Logger.Error("Failed to rank drivers", logger.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank drivers"})
		return
	}

	if h.Monitor != nil {
		h.Monitor.RecordRankingLatency(float64(time.Since(startTime).Milliseconds()), string(strategy))
		h.Monitor.RecordRankingRequest(string(strategy), len(req.Candidates), result.Count)
	}

	c.JSON(http.StatusOK, dto.RankDriversResponse{
		Success:  true,
		Drivers:  result.Items,
		Count:    result.Count,
		Strategy: string(result.Strategy),
	})
}
