package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"garansi-console/internal/apiclient"
	"garansi-console/internal/audit"
	"garansi-console/internal/authapi"
	"garansi-console/internal/config"
	"garansi-console/internal/events"
	"garansi-console/internal/httpapi"
	"garansi-console/internal/reporting"
	"garansi-console/internal/resources"
	"garansi-console/internal/session"
	"garansi-console/internal/tokenstore"
	"garansi-console/pkg/logger"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := tokenstore.Open(rootCtx, cfg.TokenStoreOptions(), log)
	if err != nil {
		log.Error("token store init failed", "err", err)
		os.Exit(1)
	}
	defer tokens.Close()

	bus := events.New()
	trail := audit.NewService(audit.NewMemoryRepo(cfg.Console.AuditLimit))

	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, tokens, bus, log)
	authn := authapi.New(api)

	sess, err := session.New(rootCtx, tokens, authn, bus, session.Options{Logger: log, Audit: trail})
	if err != nil {
		log.Error("session init failed", "err", err)
		os.Exit(1)
	}
	defer sess.Close()

	flash, unsubscribe, err := httpapi.NewFlash(bus)
	if err != nil {
		log.Error("flash init failed", "err", err)
		os.Exit(1)
	}
	defer unsubscribe()

	products := resources.NewProducts(api, sess)
	customers := resources.NewCustomers(api, sess)
	h := &httpapi.Handlers{
		Session:        sess,
		Auth:           authn,
		Audit:          trail,
		Flash:          flash,
		Reporting:      reporting.NewService(api, sess),
		Products:       products,
		Stores:         resources.NewStores(api, sess),
		Supervisors:    resources.NewSupervisors(api, sess),
		Sales:          resources.NewSales(api, sess),
		Customers:      customers,
		ProductSearch:  resources.NewLiveSearch(products.List, cfg.Console.SearchDebounce),
		CustomerSearch: resources.NewLiveSearch(customers.List, cfg.Console.SearchDebounce),
	}
	defer h.ProductSearch.Stop()
	defer h.CustomerSearch.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(log, h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Upstream calls may take the full API timeout.
		WriteTimeout: cfg.API.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("console listening", "addr", srv.Addr, "env", cfg.App.Env, "api", cfg.API.BaseURL, "authed", sess.State().IsAuthed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
