package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
)

const (
	// ContextKeyPrincipal holds the authenticated caller on the gin context.
	ContextKeyPrincipal = "auth.principal"
	// HeaderRequestID carries the request correlation id.
	HeaderRequestID = "X-Request-ID"
)

// PrincipalFromContext returns the authenticated principal set by
// RequireAuth, if any.
func PrincipalFromContext(c *gin.Context) (*domain.Principal, bool) {
	value, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil, false
	}

	principal, ok := value.(*domain.Principal)
	return principal, ok
}
