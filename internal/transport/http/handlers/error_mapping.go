package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/usecase"
)

// writeError maps usecase errors onto HTTP statuses. Credential failures
// stay deliberately vague; only lockouts carry extra detail.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var locked *usecase.AccountLockedError

	switch {
	case errors.Is(err, domain.ErrUnknownRole):
		c.JSON(http.StatusNotFound, errorResponse{Error: "role not found"})
	case errors.Is(err, usecase.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, usecase.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid refresh token"})
	case errors.As(err, &locked):
		c.JSON(http.StatusLocked, lockedResponse{
			Error:      "account locked",
			UnlockTime: locked.Until.UTC().Format(time.RFC3339),
		})
	default:
		log.Error("unhandled auth error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
