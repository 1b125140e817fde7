// README: Firebase ID-token auth middleware and caller accessors.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"greenroute/internal/infra"
)

const (
	ctxKeyUID  = "auth.uid"
	ctxKeyRole = "auth.role"

	RoleAdmin      = "admin"
	RoleLandscaper = "landscaper"
	RoleCustomer   = "customer"
)

// Auth rejects requests without a valid "Bearer <Firebase ID token>" header.
// The optional "role" custom claim is exposed through CallerRole.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || token == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxKeyUID, token.UID)
		c.Set(ctxKeyRole, token.Role())
		c.Next()
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}

// CallerRole is "" when the token carries no role claim.
func CallerRole(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}

// IsSelfOrAdmin reports whether the caller is id or holds the admin role.
func IsSelfOrAdmin(c *gin.Context, id string) bool {
	return CallerRole(c) == RoleAdmin || (id != "" && CallerUID(c) == id)
}
