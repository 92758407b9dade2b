package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"pemiyos/internal/services"
)

// respond writes the success envelope.
func respond(c *gin.Context, code int, data any, message string) {
	c.JSON(code, gin.H{"data": data, "message": message})
}

// respondPage writes a paginated list, mirroring the pagination block in
// the X-Pagination header.
func respondPage(c *gin.Context, data any, message string, p *services.Pagination) {
	if raw, err := json.Marshal(p); err == nil {
		c.Header("X-Pagination", string(raw))
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "message": message, "pagination": p})
}

// respondError maps a service error to its status code. Internal errors are
// recorded on the context and hidden from the caller.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(statusOf(kind), gin.H{"error": err.Error()})
}

func statusOf(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Index is the plain liveness answer of the root path.
func Index(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
