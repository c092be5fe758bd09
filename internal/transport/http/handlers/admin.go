package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/transport/http/middleware"
)

// AdminHandler serves the administrative lockout operations.
type AdminHandler struct {
	service AuthService
	log     *zap.Logger
}

func NewAdminHandler(service AuthService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{service: service, log: log}
}

// Unlock clears the lockout state for an (email, role) pair.
func (h *AdminHandler) Unlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "email and role are required"})
		return
	}

	unlockedBy := "unknown"
	if principal, ok := middleware.PrincipalFromContext(c); ok {
		unlockedBy = principal.Email
	}

	if err := h.service.Unlock(c.Request.Context(), req.Email, req.Role, unlockedBy); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account unlocked"})
}
