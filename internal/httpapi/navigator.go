package httpapi

import (
	"sync"

	"github.com/gin-gonic/gin"

	"garansi-console/internal/apiclient"
)

const navigatorKey = "navigator"

// pageNavigator lets the API pipeline move the current page. The redirect
// is only recorded here; the handler turns it into a 303.
type pageNavigator struct {
	path string

	mu       sync.Mutex
	location string
}

func (n *pageNavigator) CurrentPath() string { return n.path }

func (n *pageNavigator) Redirect(path string) {
	n.mu.Lock()
	n.location = path
	n.mu.Unlock()
}

func (n *pageNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// Navigation attaches a navigator for the current page to the request
// context.
func Navigation() gin.HandlerFunc {
	return func(c *gin.Context) {
		nav := &pageNavigator{path: c.Request.URL.Path}
		c.Set(navigatorKey, nav)
		c.Request = c.Request.WithContext(apiclient.WithNavigator(c.Request.Context(), nav))
		c.Next()
	}
}

func navigatorFrom(c *gin.Context) *pageNavigator {
	if v, ok := c.Get(navigatorKey); ok {
		if nav, ok := v.(*pageNavigator); ok {
			return nav
		}
	}
	return nil
}
