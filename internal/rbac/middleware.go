package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubjectSource yields the guard subject for the current process session.
type SubjectSource interface {
	Subject() Subject
}

// Guard renders the route only when Decide says so; otherwise it redirects
// with 303 so a follow-up GET lands on the target page.
func Guard(src SubjectSource, allowed ...Role) gin.HandlerFunc {
	roles := append([]Role(nil), allowed...)

	return func(c *gin.Context) {
		d := Decide(src.Subject(), roles)
		if !d.Render() {
			c.Redirect(http.StatusSeeOther, d.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GuardLogin applies the inverse rule on the login page.
func GuardLogin(src SubjectSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := DecideLogin(src.Subject())
		if !d.Render() {
			c.Redirect(http.StatusSeeOther, d.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission rejects actions the current role may not perform.
// It assumes Guard already admitted the caller.
func RequirePermission(src SubjectSource, res Resource, act Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := src.Subject()
		if !s.Authenticated {
			c.Redirect(http.StatusSeeOther, PathLogin)
			c.Abort()
			return
		}
		if !Can(s.Role, res, act) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
