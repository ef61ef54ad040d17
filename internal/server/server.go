// Package server is the HTTP Server Front (C7): it binds a listener
// (plain or TLS), wires the chi middleware stack the teacher
// (nexus-gateway) uses, and dispatches everything outside /health and
// /metrics to the Request Resolver.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/metrics"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/resolver"
)

// RequestTimeout bounds how long the pipeline may suspend per request
// before the gateway emits a 504 (spec.md §5).
const RequestTimeout = 30 * time.Second

// Server wraps the chi router and underlying net/http.Server.
type Server struct {
	mux     *chi.Mux
	httpSrv *http.Server
	addr    string
	tlsConf *tls.Config
}

// Options configures Server construction.
type Options struct {
	Addr     string
	Resolver *resolver.Resolver
	TLS      *tls.Config // non-nil flips the listener to HTTPS
}

// New builds a Server wired the way nexus-gateway/internal/server/server.go
// wires its chi.Mux: CORS, request id, access logging, panic recovery,
// per-request timeout, and real-IP resolution, in that order.
func New(opts Options) *Server {
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(RequestTimeout))
	mux.Use(middleware.RealIP)

	s := &Server{mux: mux, addr: opts.Addr, tlsConf: opts.TLS}
	s.routes(opts.Resolver)

	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		TLSConfig:         opts.TLS,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes(res *resolver.Resolver) {
	s.mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	s.mux.Handle("/metrics", promhttp.Handler())

	dispatch := func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsTotal.WithLabelValues(r.Method, r.URL.Path).Inc()
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = uuid.NewString()
		}
		res.ServeHTTP(w, r, requestID)
	}
	s.mux.NotFound(dispatch)
	s.mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { dispatch(w, r) })
}

// ListenAndServe binds its own listener and blocks serving traffic.
func (s *Server) ListenAndServe() error {
	if s.tlsConf != nil {
		return s.httpSrv.ListenAndServeTLS("", "")
	}
	return s.httpSrv.ListenAndServe()
}

// ServeListener blocks serving plain HTTP traffic on an already-bound
// listener, so the caller (the Service Facade) retains the socket handle.
func (s *Server) ServeListener(ln net.Listener) error {
	return s.httpSrv.Serve(ln)
}

// ServeTLSListener blocks serving HTTPS traffic on an already-bound
// listener using the certificates configured via Options.TLS.
func (s *Server) ServeTLSListener(ln net.Listener) error {
	return s.httpSrv.ServeTLS(ln, "", "")
}

// Shutdown drains in-flight requests with a bounded grace period, the way
// nexus-gateway/internal/grpc/server_grpc.go's Shutdown pairs
// GracefulStop with http.Server.Shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Addr returns the server's configured listen address.
func (s *Server) Addr() string { return s.addr }
