// Package resolver implements the Request Resolver (C6): given an HTTP
// request, it picks a mount, applies alias rewriting, enforces the
// whitelist, merges parameters, invokes the broker, and materializes the
// result — or falls through to asset serving when no mount matches
// (spec.md §4.6).
package resolver

import (
	"context"
	"net/http"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/assets"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/bodyparser"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/broker"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/httperr"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/logging"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/materialize"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/routetable"
)

// MaxBodyBytes caps the request body the parser stage will buffer.
const MaxBodyBytes = 10 << 20 // 10 MiB

// Resolver is constructed once at startup from the compiled route table and
// is safe for concurrent use: it holds no per-request state.
type Resolver struct {
	GlobalPath string
	Mounts     []*routetable.Mount
	Broker     broker.Broker
	Assets     *assets.Server
	Log        *logging.Logger
}

// New builds a Resolver.
func New(globalPath string, mounts []*routetable.Mount, b broker.Broker, assetServer *assets.Server, log *logging.Logger) *Resolver {
	return &Resolver{GlobalPath: globalPath, Mounts: mounts, Broker: b, Assets: assetServer, Log: log}
}

// ServeHTTP runs the full resolution pipeline for one request.
func (res *Resolver) ServeHTTP(w http.ResponseWriter, r *http.Request, requestID string) {
	rel, ok := routetable.StripPrefix(r.URL.Path, res.GlobalPath)
	if !ok {
		res.Assets.ServeOrNotFound(w, r, requestID)
		return
	}

	for _, mount := range res.Mounts {
		relM, ok := routetable.StripPrefix(rel, mount.Path)
		if !ok {
			continue
		}
		res.handleMount(w, r, mount, relM, requestID)
		return
	}

	res.Assets.ServeOrNotFound(w, r, requestID)
}

func (res *Resolver) handleMount(w http.ResponseWriter, r *http.Request, mount *routetable.Mount, relative, requestID string) {
	relClean := trim(relative)

	actionName, matched := mount.LookupAlias(r.Method, relClean)
	if !matched {
		actionName = routetable.ImplicitAction(relClean)
	}

	if mount.HasWhitelist() && !mount.Allows(actionName) {
		httperr.Write(w, requestID, broker.ServiceNotFound(actionName))
		return
	}

	parsedBody, err := bodyparser.Parse(r, mount.Parsers, MaxBodyBytes)
	if err != nil {
		httperr.Write(w, requestID, err)
		return
	}

	merged := mergeParams(r.URL.Query(), parsedBody)

	ctx := r.Context()
	result, err := res.Broker.Invoke(ctx, actionName, merged)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
			httperr.Timeout(w, requestID)
			return
		}
		httperr.Write(w, requestID, err)
		return
	}

	materialize.Write(w, res.Log, requestID, result)
}

// mergeParams shallow-merges query then body, body winning on conflict,
// per spec.md §3 invariant 4.
func mergeParams(query map[string][]string, body map[string]any) map[string]any {
	merged := make(map[string]any, len(query)+len(body))
	for k, v := range query {
		if len(v) > 0 {
			merged[k] = v[0]
		}
	}
	for k, v := range body {
		merged[k] = v
	}
	return merged
}

func trim(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
