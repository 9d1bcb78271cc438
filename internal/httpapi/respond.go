package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"garansi-console/internal/apiclient"
	"garansi-console/internal/authapi"
	"garansi-console/internal/rbac"
	"garansi-console/internal/reporting"
	"garansi-console/internal/resources"
	"garansi-console/pkg/logger"
	"garansi-console/pkg/validate"
)

// fail renders err for the current page. A session the API just rejected
// turns into a 303 to the login page; everything else becomes a JSON error
// with the best message available.
func fail(c *gin.Context, err error) {
	if nav := navigatorFrom(c); nav != nil {
		if loc := nav.Location(); loc != "" {
			c.Redirect(http.StatusSeeOther, loc)
			c.Abort()
			return
		}
	}
	if errors.Is(err, apiclient.ErrSessionExpired) || errors.Is(err, resources.ErrNoSession) {
		c.Redirect(http.StatusSeeOther, rbac.PathLogin)
		c.Abort()
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		logger.FromGin(c).DebugContext(c.Request.Context(), "page error", "status", status, "err", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	var ve *validate.Error
	if errors.As(err, &ve) {
		return http.StatusBadRequest, gin.H{"error": ve.Error(), "fields": ve.Fields()}
	}

	switch {
	case errors.Is(err, resources.ErrNotPermitted):
		return http.StatusForbidden, gin.H{"error": "forbidden"}
	case errors.Is(err, resources.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": apiclient.MessageOf(err)}
	case errors.Is(err, resources.ErrMissingID), errors.Is(err, reporting.ErrInvalidRequest):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, resources.ErrSuperseded):
		return http.StatusConflict, gin.H{"error": "superseded by a newer search"}
	case errors.Is(err, apiclient.ErrTimeout):
		return http.StatusGatewayTimeout, gin.H{"error": apiclient.MessageOf(err)}
	case errors.Is(err, authapi.ErrMalformedLogin):
		return http.StatusBadGateway, gin.H{"error": "unexpected login response"}
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		body := gin.H{"error": apiErr.Message}
		if details := apiclient.ValidationMessages(err); len(details) > 0 {
			body["details"] = details
		}
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, body
		}
		return http.StatusBadGateway, body
	}
	return http.StatusInternalServerError, gin.H{"error": "internal error"}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
