package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shop-backend/internal/auth"
	"shop-backend/internal/config"
	"shop-backend/internal/httpx"
	"shop-backend/internal/metrics"
	"shop-backend/internal/models"
)

const identityKey = "identity"

// Guard builds the access gate for route groups.
type Guard struct {
	resolver auth.IdentityResolver
	metrics  *metrics.Metrics
}

func NewGuard(resolver auth.IdentityResolver, m *metrics.Metrics) *Guard {
	return &Guard{resolver: resolver, metrics: m}
}

// Authenticate resolves the bearer credential and rejects the request with
// 401 when no identity can be established.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.resolver.Resolve(c.Request.Context(), bearerToken(c))
		if err != nil {
			g.reject("unauthenticated")
			_ = c.Error(err)
			httpx.Fail(c, http.StatusUnauthorized, "User not authenticated", "")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// Identify resolves the credential when one can be resolved and never
// rejects.
func (g *Guard) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := g.resolver.Resolve(c.Request.Context(), bearerToken(c)); err == nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (g *Guard) RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			g.reject("unauthenticated")
			httpx.Fail(c, http.StatusUnauthorized, "User not authenticated", "")
			return
		}
		if id.Role != role {
			g.reject("forbidden")
			httpx.Fail(c, http.StatusForbidden, "Only "+string(role)+" can perform this action", "")
			return
		}
		c.Next()
	}
}

// Policy returns the chain for an access level from config.
func (g *Guard) Policy(level string) []gin.HandlerFunc {
	switch level {
	case config.AccessAdmin:
		return []gin.HandlerFunc{g.Authenticate(), g.RequireRole(models.RoleAdmin)}
	case config.AccessAuthenticated:
		return []gin.HandlerFunc{g.Authenticate()}
	default:
		return []gin.HandlerFunc{g.Identify()}
	}
}

func (g *Guard) reject(reason string) {
	if g.metrics != nil {
		g.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
}

func IdentityFrom(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*auth.Identity)
	return id, ok && id != nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
