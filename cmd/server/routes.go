package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/blobgate/pkg/auth"
	"github.com/rhuss/blobgate/pkg/auth/apikey"
	"github.com/rhuss/blobgate/pkg/auth/jwt"
	"github.com/rhuss/blobgate/pkg/config"
	"github.com/rhuss/blobgate/pkg/files"
	"github.com/rhuss/blobgate/pkg/gate"
	"github.com/rhuss/blobgate/pkg/storage"
	"github.com/rhuss/blobgate/pkg/transport"
)

// staticCacheControl caches static assets for one year.
const staticCacheControl = "public, max-age=31557600"

// newHandler builds the routing mux: health, metrics, static files, and
// the gated file routes.
func newHandler(cfg *config.Config, store storage.FileStore, logger *slog.Logger) (http.Handler, error) {
	authCfg := auth.Config{
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
		Decoder:  jwt.New(jwt.Config{ScopesClaim: cfg.Auth.ScopesClaim}),
		Logger:   logger,
	}
	if cfg.Auth.APIKey != "" {
		authCfg.APIKey = apikey.New(cfg.Auth.APIKey)
	}
	if err := authCfg.Validate(); err != nil {
		return nil, fmt.Errorf("auth configuration: %w", err)
	}

	pipeline, err := gate.New(gate.Config{
		Authenticator: auth.NewAuthenticator(authCfg),
		Authorizer:    auth.NewAuthorizer(authCfg),
		Reporter:      transport.NewErrorWriter(logger),
		Header:        cfg.Auth.Header,
		MaxBodySize:   cfg.Server.MaxBodySize,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gate: %w", err)
	}

	mux := http.NewServeMux()

	err = files.Register(mux, pipeline, files.New(store, logger), files.Config{
		ReadScopes:  cfg.Files.ReadScopes,
		WriteScopes: cfg.Files.WriteScopes,
		AllowAPIKey: cfg.Files.AllowAPIKey,
	})
	if err != nil {
		return nil, err
	}

	mux.HandleFunc("GET /healthz", healthHandler(store, logger))

	if m := cfg.Observability.Metrics; m.Enabled {
		mux.Handle("GET "+m.Path, promhttp.Handler())
	}

	if dir := cfg.Server.StaticDir; dir != "" {
		mux.Handle("GET /", staticHandler(dir))
		logger.Info("serving static files", "dir", dir)
	}

	return mux, nil
}

func healthHandler(store storage.FileStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.HealthCheck(r.Context()); err != nil {
			logger.Warn("health check failed", "error", err)
			transport.WriteErrorResponse(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}
}

func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", staticCacheControl)
		fs.ServeHTTP(w, r)
	})
}
