// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and the IAM
handler set into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/config"
	"github.com/taibuivan/irongate/internal/platform/constants"
	"github.com/taibuivan/irongate/internal/platform/metrics"
	"github.com/taibuivan/irongate/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
	tlsCert    string
	tlsKey     string
}

// # Handler Registry

// Handlers groups the HTTP handler sets and the security middleware that
// guards the resource routes.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// IAM handles every resource route: users, groups, policies,
	// memberships, sessions, attachments.
	IAM *iam.Handler

	// Security is the signature-verification + policy-evaluation gate
	// wrapped around the IAM routes.
	Security func(http.Handler) http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// Resource routes mount at the server root, unversioned: policy rule
// resources match request paths verbatim, so the router must not add a
// prefix the policies would have to know about. Paths are also routed
// as-received; no path canonicalization runs, because the signature covers
// the raw request-line bytes.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, registry *metrics.Registry, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(registry.Middleware())

	// # Infrastructure Endpoints
	// Unauthenticated probes and metrics for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Handle("/metrics", registry.Handler())

	// # Application API
	// Signature authentication and policy authorization gate every
	// resource route.
	r.Group(func(protected chi.Router) {
		protected.Use(h.Security)
		protected.Mount("/", h.IAM.Routes())
	})

	return &Server{
		router:  r,
		log:     log,
		tlsCert: cfg.TLSCert,
		tlsKey:  cfg.TLSKey,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server, with TLS when a certificate pair
// is configured.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	if s.tlsCert != "" && s.tlsKey != "" {
		s.log.Info("server starting", slog.String("addr", s.httpServer.Addr), slog.Bool("tls", true))
		return s.httpServer.ListenAndServeTLS(s.tlsCert, s.tlsKey)
	}

	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr), slog.Bool("tls", false))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
