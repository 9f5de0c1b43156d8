package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saturn-proxy/internal/platform/config"
	"saturn-proxy/internal/platform/logger"
	"saturn-proxy/internal/platform/metrics"
	"saturn-proxy/internal/proxy"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8000")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	upstreamTimeout := config.GetEnvDuration("UPSTREAM_TIMEOUT", 0)
	bypassFiles := config.GetEnvList("BYPASS_FILES", nil)
	userAgent := config.GetEnv("ORIGIN_USER_AGENT", "")
	referer := config.GetEnv("ORIGIN_REFERER", "")

	log := logger.New(os.Stdout, logLevel, logFormat)

	fetcher := proxy.NewOriginClient(upstreamTimeout, userAgent, referer)
	svc := proxy.NewService(fetcher, bypassFiles)
	met := metrics.New()
	h := proxy.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Range", "Accept-Ranges"},
		AllowCredentials: false,
	}))
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))

	r.Get("/", h.Root)
	r.Get("/proxy", h.Proxy)
	r.Get("/embed", h.Embed)
	r.Method(http.MethodGet, "/metrics", met.Handler())

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"upstream_timeout", upstreamTimeout.String(),
		"bypass_files", bypassFiles,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
