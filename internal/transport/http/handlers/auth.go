package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/transport/http/middleware"
	"github.com/ksalhab89/coupon-system-auth/internal/usecase"
)

// AuthService is the slice of the auth usecase the HTTP handlers consume.
type AuthService interface {
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*usecase.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, email string) (int, error)
	Unlock(ctx context.Context, email, role, unlockedBy string) error
}

// AuthHandler serves the session lifecycle endpoints.
type AuthHandler struct {
	service AuthService
	log     *zap.Logger
}

func NewAuthHandler(service AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

// Login exchanges credentials for a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "email, password, and role are required"})
		return
	}

	session, err := h.service.Login(c.Request.Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, sessionToResponse(session))
}

// Refresh rotates a refresh token into a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "refresh_token is required"})
		return
	}

	session, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, sessionToResponse(session))
}

// Logout invalidates the presented refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "refresh_token is required"})
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// LogoutAll invalidates every refresh token of the authenticated caller.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	ended, err := h.service.LogoutAll(c.Request.Context(), principal.Email)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, logoutAllResponse{SessionsEnded: ended})
}

func sessionToResponse(session *usecase.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(session.ExpiresIn.Seconds()),
		User: userResponse{
			ID:          session.Principal.UserID,
			Email:       session.Principal.Email,
			Role:        session.Principal.Role.String(),
			DisplayName: session.Principal.DisplayName,
		},
	}
}
