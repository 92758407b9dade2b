package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pemiyos/internal/middleware"
	"pemiyos/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	NIS      *string `json:"nis"`
	Password *string `json:"password"`
}

// Login exchanges nis and password for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "NIS and password must be strings"})
		return
	}
	if req.NIS == nil || req.Password == nil || *req.NIS == "" || *req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "NIS and password are required"})
		return
	}

	result, err := h.auth.Authenticate(c.Request.Context(), *req.NIS, *req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result, "Login successful")
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found in context"})
		return
	}
	doc, err := h.auth.Profile(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, doc, "Profile retrieved successfully")
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Logout successful")
}
