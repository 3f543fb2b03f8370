// Package main is a self-contained demo of the finch URL cache: the
// in-memory issuer, a short demo TTL, and a minimal HTTP surface with
// no config file required. The full sidecar lives in cmd/server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/finch/internal/cache"
	"github.com/sp3dr4/finch/internal/domain"
	"github.com/sp3dr4/finch/internal/infrastructure/memory"
)

const (
	defaultPort       = "8080"
	demoExpirySeconds = 30
	refreshTimeout    = 10 * time.Second
)

var validate = validator.New()

type refreshPayload struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Index      int    `json:"index" validate:"min=0"`
}

func newDemoRouter(c *cache.Cache) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/urls/{resourceID}/{index}", func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index must be an integer"})
			return
		}

		key := domain.Key{ResourceID: chi.URLParam(r, "resourceID"), Index: index}
		url := c.GetURL(key, r.URL.Query().Get("fallback"))
		if url == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no cached url and no fallback given"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"url":     url,
			"version": c.Version(),
		})
	})

	r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		var payload refreshPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := validate.Struct(payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
		defer cancel()

		key := domain.Key{ResourceID: payload.ResourceID, Index: payload.Index}
		url, err := c.RefreshURL(ctx, key)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, domain.ErrCacheClosed) {
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"url":     url,
			"version": c.Version(),
		})
	})

	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]uint64{"version": c.Version()})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	issuer := memory.NewIssuer(demoExpirySeconds)
	c := cache.New(issuer, cache.Config{
		DefaultExpiry: demoExpirySeconds * time.Second,
	}, logger, nil, nil)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newDemoRouter(c),
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("Starting demo server", "port", port, "demo_expiry_seconds", demoExpirySeconds)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down demo server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if err := c.Close(); err != nil {
		slog.Error("Failed to close cache", "error", err)
	}

	slog.Info("Demo server exited")
}
