package auth

import "github.com/gin-gonic/gin"

// IdentitySource exposes the current session's user, if any.
type IdentitySource interface {
	Identity() (User, bool)
}

// AttachIdentity injects the current session user into the request context.
// It never rejects a request; guarding belongs to internal/rbac.
func AttachIdentity(src IdentitySource) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := src.Identity()
		if ok {
			c.Request = c.Request.WithContext(WithUser(c.Request.Context(), u))
			c.Set("user_id", u.ID)
			c.Set("role", string(u.Role))
		}
		c.Next()
	}
}
