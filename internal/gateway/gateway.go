// Package gateway is the Service Facade (C8): it constructs the other
// components from a Gateway Configuration and exposes the lifecycle hooks
// a process supervisor (or test harness) needs.
package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/assets"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/broker"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/config"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/logging"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/resolver"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/routetable"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/server"
)

// ShutdownGrace bounds how long Stopped waits for in-flight requests to drain.
const ShutdownGrace = 10 * time.Second

// Gateway is the top-level object a process or test harness builds and
// drives through its lifecycle: Started binds the socket, Stopped drains it.
type Gateway struct {
	cfg     *config.Gateway
	srv     *server.Server
	log     *logging.Logger
	isHTTPS bool
	ln      net.Listener
}

// New constructs a Gateway from cfg and a Broker Client Adapter. b is
// typically a *broker.RestyClient pointed at the out-of-process broker,
// but any Broker implementation (e.g. a fake in tests) works.
func New(cfg *config.Gateway, b broker.Broker, log *logging.Logger) (*Gateway, error) {
	if log == nil {
		log = logging.New()
	}

	mounts := buildMounts(cfg.ResolvedRoutes())

	var assetServer *assets.Server
	if cfg.Assets != nil {
		assetServer = assets.New(cfg.Assets.Folder)
	} else {
		assetServer = assets.New("")
	}

	res := resolver.New(cfg.Path, mounts, b, assetServer, log)

	var tlsConf *tls.Config
	isHTTPS := false
	if cfg.HTTPS != nil && len(cfg.HTTPS.Key) > 0 && len(cfg.HTTPS.Cert) > 0 {
		cert, err := tls.X509KeyPair(cfg.HTTPS.Cert, cfg.HTTPS.Key)
		if err != nil {
			return nil, fmt.Errorf("gateway: invalid https key/cert: %w", err)
		}
		tlsConf = &tls.Config{Certificates: []tls.Certificate{cert}}
		isHTTPS = true
	}

	addr := net.JoinHostPort(cfg.IP, cfg.Port)
	srv := server.New(server.Options{Addr: addr, Resolver: res, TLS: tlsConf})

	return &Gateway{cfg: cfg, srv: srv, log: log, isHTTPS: isHTTPS}, nil
}

// buildMounts compiles the resolved route configuration into the route
// table Mounts the resolver consults (C5).
func buildMounts(routes []config.RouteConfig) []*routetable.Mount {
	mounts := make([]*routetable.Mount, 0, len(routes))
	for _, rc := range routes {
		spec := routetable.MountSpec{
			Path:      rc.Path,
			Whitelist: rc.Whitelist,
			Parsers: routetable.ParserSettings{
				Disabled:          rc.BodyParsers.Disabled,
				JSONEnabled:       rc.BodyParsers.JSON.Enabled,
				URLEncodedEnabled: rc.BodyParsers.URLEncoded.Enabled,
			},
		}
		for _, a := range rc.Aliases {
			spec.Aliases = append(spec.Aliases, routetable.AliasSpec{Key: a.Key, Target: a.Target})
		}
		mounts = append(mounts, routetable.Compile(spec))
	}
	return mounts
}

// IsHTTPS reports whether the gateway is configured to terminate TLS
// itself.
func (g *Gateway) IsHTTPS() bool { return g.isHTTPS }

// Server exposes the underlying HTTP Server Front for test harnesses.
func (g *Gateway) Server() *server.Server { return g.srv }

// Created is a lifecycle hook fired once components are wired but before
// any socket is bound, for parity with the broker's own lifecycle hooks.
func (g *Gateway) Created() {
	g.log.Info("gateway created", "https", g.isHTTPS)
}

// Started binds the listening socket and begins serving in the background.
// It returns once the listener is confirmed bound, surfacing bind errors
// synchronously.
func (g *Gateway) Started() error {
	ln, err := net.Listen("tcp", g.srv.Addr())
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", g.srv.Addr(), err)
	}
	g.ln = ln

	go func() {
		var serveErr error
		if g.isHTTPS {
			serveErr = g.srv.ServeTLSListener(ln)
		} else {
			serveErr = g.srv.ServeListener(ln)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			g.log.Error(serveErr, "gateway listener stopped unexpectedly")
		}
	}()

	g.log.Info("gateway started", "addr", ln.Addr().String())
	return nil
}

// Stopped drains in-flight requests with a bounded grace period and closes
// the socket.
func (g *Gateway) Stopped(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownGrace)
	defer cancel()
	err := g.srv.Shutdown(shutdownCtx)
	g.log.Info("gateway stopped")
	return err
}
