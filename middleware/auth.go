package middleware

import (
	"net/http"
	"strings"

	"food-delivery-platform/auth"
	"food-delivery-platform/logging"
	"food-delivery-platform/models"
	"food-delivery-platform/tenancy"

	"github.com/gin-gonic/gin"
)

const scopeKey = "scope"

// AuthRequired validates the bearer token and stores the caller's scope in
// both the gin context and the request context. Every failure gets the same
// 401 body; the cause is only logged.
func AuthRequired(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c.Request.Context())

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			log.Debug("missing bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		payload, err := tokens.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.WithError(err).Warn("rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		scope := tenancy.Scope{TenantID: payload.TenantID, UserID: payload.UserID, Role: payload.Role}
		c.Set(scopeKey, scope)
		ctx := tenancy.NewContext(c.Request.Context(), scope)
		ctx = logging.WithEntry(ctx, log.WithField("user_id", payload.UserID).WithField("tenant_id", payload.TenantID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RoleRequired enforces a minimum role rank
func RoleRequired(min models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok || !auth.HasPermission(scope.Role, min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied, requires role " + string(min) + " or above",
			})
			return
		}
		c.Next()
	}
}

// CapabilityRequired enforces a named capability instead of a rank
func CapabilityRequired(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok || !auth.Can(scope.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// GetScope returns the verified caller scope set by AuthRequired
func GetScope(c *gin.Context) (tenancy.Scope, bool) {
	val, exists := c.Get(scopeKey)
	if !exists {
		return tenancy.Scope{}, false
	}
	scope, ok := val.(tenancy.Scope)
	return scope, ok
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) uint {
	scope, _ := GetScope(c)
	return scope.UserID
}
