package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pemiyos/internal/services"
	"pemiyos/internal/utils"
)

type StatisticHandler struct {
	stats *services.StatisticsService
}

func NewStatisticHandler(stats *services.StatisticsService) *StatisticHandler {
	return &StatisticHandler{stats: stats}
}

// Votes returns the tally of a position, or its non-voters with
// ?not_votes=true.
func (h *StatisticHandler) Votes(c *gin.Context) {
	positionID, err := strconv.Atoi(c.Param("position_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid position_id"})
		return
	}
	notVotes := utils.StringToBool(c.Query("not_votes"))

	result, err := h.stats.VoteStatistics(c.Request.Context(), positionID, notVotes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result, "Success")
}
