package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"garansi-console/internal/auth"
	"garansi-console/internal/httpapi"
	"garansi-console/pkg/logger"
)

// newRouter wires middleware and routes. Keep this file free of business
// logic; handlers delegate to internal modules.
func newRouter(log *slog.Logger, h *httpapi.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.Metrics())

	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pages := r.Group("")
	pages.Use(httpapi.Navigation())
	pages.Use(auth.AttachIdentity(h.Session))
	h.Mount(pages)

	return r
}
