package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pemiyos/internal/middleware"
	"pemiyos/internal/schema"
	"pemiyos/internal/services"
)

// CRUDHandler serves the generic collection routes.
type CRUDHandler struct {
	docs *services.DocumentService
	crud *services.CRUDService
}

func NewCRUDHandler(docs *services.DocumentService, crud *services.CRUDService) *CRUDHandler {
	return &CRUDHandler{docs: docs, crud: crud}
}

func collectionParam(c *gin.Context) (schema.Collection, bool) {
	coll, err := services.ParseCollection(c.Param("collection"))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return coll, true
}

// List handles GET /api/:collection.
func (h *CRUDHandler) List(c *gin.Context) {
	coll, ok := collectionParam(c)
	if !ok {
		return
	}
	params := services.ParseListParams(c.Request.URL.Query())

	result, err := h.docs.FindAll(c.Request.Context(), coll, params)
	if err != nil {
		respondError(c, err)
		return
	}

	switch {
	case result.Count != nil:
		respond(c, http.StatusOK, gin.H{"count": *result.Count}, "Count retrieved successfully")
	case result.Pagination != nil:
		respondPage(c, result.Data, "Data retrieved successfully", result.Pagination)
	default:
		respond(c, http.StatusOK, result.Data, "Data retrieved successfully")
	}
}

// Get handles GET /api/:collection/:id.
func (h *CRUDHandler) Get(c *gin.Context) {
	coll, ok := collectionParam(c)
	if !ok {
		return
	}
	doc, err := h.docs.FindByID(c.Request.Context(), coll, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, doc, "Data retrieved successfully")
}

// Create handles POST /api/:collection. Voters may only cast their own
// votes.
func (h *CRUDHandler) Create(c *gin.Context) {
	coll, ok := collectionParam(c)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	if user == nil || (!user.IsAdmin() && coll != schema.Votes) {
		respondError(c, services.ErrForbidden)
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
		return
	}
	if !user.IsAdmin() {
		data["user_id"] = user.ID
	}

	doc, err := h.crud.Create(c.Request.Context(), coll, data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, doc, "Data created successfully")
}

// BulkCreate handles POST /api/:collection/bulk.
func (h *CRUDHandler) BulkCreate(c *gin.Context) {
	coll, ok := collectionParam(c)
	if !ok {
		return
	}

	var items []map[string]any
	if err := c.ShouldBindJSON(&items); err != nil || len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be a non-empty array"})
		return
	}

	result, err := h.crud.BulkCreate(c.Request.Context(), coll, items)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, result, "Bulk data created successfully")
}

// Update handles PUT /api/:collection/:id.
func (h *CRUDHandler) Update(c *gin.Context) {
	coll, ok := collectionParam(c)
	if !ok {
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
		return
	}

	doc, err := h.crud.Update(c.Request.Context(), coll, c.Param("id"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, doc, "Data updated successfully")
}

// SoftDelete handles DELETE /api/:collection/:id.
func (h *CRUDHandler) SoftDelete(c *gin.Context) {
	coll, ok := collectionParam(c)
	if !ok {
		return
	}
	if err := h.crud.SoftDelete(c.Request.Context(), coll, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, fmt.Sprintf("%s deleted successfully", coll.Singular()))
}

// HardDelete handles DELETE /api/:collection/:id/hard.
func (h *CRUDHandler) HardDelete(c *gin.Context) {
	coll, ok := collectionParam(c)
	if !ok {
		return
	}
	if err := h.crud.HardDelete(c.Request.Context(), coll, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, fmt.Sprintf("%s permanently deleted", coll.Singular()))
}

type flushRequest struct {
	Collections []string `json:"collections"`
}

// Flush handles DELETE /api/flush.
func (h *CRUDHandler) Flush(c *gin.Context) {
	var req flushRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Collections) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Collections must be a non-empty array"})
		return
	}

	colls := make([]schema.Collection, 0, len(req.Collections))
	for _, name := range req.Collections {
		coll, err := services.ParseCollection(name)
		if err != nil {
			respondError(c, err)
			return
		}
		colls = append(colls, coll)
	}

	result, err := h.crud.Flush(c.Request.Context(), colls)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result.Details, result.Message)
}
