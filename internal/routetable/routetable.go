// Package routetable compiles Route Configurations into the matchers the
// Request Resolver (C6) consults on the hot path: whitelist patterns become
// matcher functions, and aliases become method-qualified and
// method-agnostic lookup maps. Construction happens once at startup; the
// compiled table is read-only thereafter (spec.md §5).
package routetable

import "strings"

// Mount is one compiled route: a path prefix plus its whitelist and alias
// lookups.
type Mount struct {
	Path         string
	hasWhitelist bool
	patterns     []pattern
	byMethod     map[string]string
	byAny        map[string]string
	Parsers      ParserSettings
}

// ParserSettings is the subset of config.BodyParsers the body parser stage
// needs; routetable re-exports it as its own type so that package does not
// need to import config (keeping the compiled table as the one boundary
// between configuration shape and request-time behavior).
type ParserSettings struct {
	Disabled           bool
	JSONEnabled        bool
	URLEncodedEnabled  bool
}

// MountSpec is the input to Compile: the pieces of a config.RouteConfig the
// table needs, expressed without a dependency on the config package so
// this package stays testable in isolation.
type MountSpec struct {
	Path        string
	Whitelist   []string
	Aliases     []AliasSpec
	Parsers     ParserSettings
}

// AliasSpec is one (key, target) alias pair. Key is the raw "METHOD path"
// or bare "path" string; Compile splits it into method and path.
type AliasSpec struct {
	Key    string
	Target string
}

type pattern struct {
	segments []string
}

// Compile builds a Mount from a MountSpec. Earlier aliases in the spec win
// ties: Compile never overwrites an already-populated map key.
func Compile(spec MountSpec) *Mount {
	m := &Mount{
		Path:         normalizePath(spec.Path),
		hasWhitelist: spec.Whitelist != nil,
		byMethod:     make(map[string]string),
		byAny:        make(map[string]string),
		Parsers:      spec.Parsers,
	}
	for _, w := range spec.Whitelist {
		m.patterns = append(m.patterns, pattern{segments: strings.Split(w, ".")})
	}
	for _, a := range spec.Aliases {
		method, path := splitAliasKey(a.Key)
		path = strings.Trim(path, "/")
		if method == "" {
			if _, exists := m.byAny[path]; !exists {
				m.byAny[path] = a.Target
			}
			continue
		}
		key := method + " " + path
		if _, exists := m.byMethod[key]; !exists {
			m.byMethod[key] = a.Target
		}
	}
	return m
}

// splitAliasKey separates "GET hello" into ("GET", "hello") and leaves a
// bare "hello" as ("", "hello").
func splitAliasKey(key string) (method, path string) {
	parts := strings.SplitN(key, " ", 2)
	if len(parts) == 2 {
		return strings.ToUpper(strings.TrimSpace(parts[0])), strings.TrimSpace(parts[1])
	}
	return "", strings.TrimSpace(key)
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	p = strings.TrimSuffix(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// StripPrefix removes prefix from path if path is prefix or a sub-path of
// it, returning the remainder (still leading-slash-qualified, e.g. "/hello"
// or "" for an exact match) and whether it matched at all. A prefix only
// matches at a path-segment boundary: "/api1" never matches "/api10/x".
func StripPrefix(path, prefix string) (rel string, ok bool) {
	prefix = normalizePath(prefix)
	if prefix == "" {
		return path, true
	}
	if path == prefix {
		return "", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):], true
	}
	return "", false
}

// LookupAlias resolves relClean (a slash-trimmed relative path, e.g.
// "hello") against this mount's aliases, method first then any-method.
func (m *Mount) LookupAlias(method, relClean string) (target string, ok bool) {
	if target, ok = m.byMethod[strings.ToUpper(method)+" "+relClean]; ok {
		return target, true
	}
	target, ok = m.byAny[relClean]
	return target, ok
}

// HasWhitelist reports whether this mount restricts actions at all.
func (m *Mount) HasWhitelist() bool { return m.hasWhitelist }

// Allows reports whether action matches at least one whitelist pattern.
// "*" is a single path-segment wildcard: "math.*" matches "math.add" but
// not "math.add.extra" or bare "math".
func (m *Mount) Allows(action string) bool {
	actionSegs := strings.Split(action, ".")
	for _, p := range m.patterns {
		if matchPattern(p.segments, actionSegs) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, action []string) bool {
	if len(pattern) != len(action) {
		return false
	}
	for i, seg := range pattern {
		if seg == "*" {
			continue
		}
		if seg != action[i] {
			return false
		}
	}
	return true
}

// ImplicitAction derives an action name from a relative path when no alias
// matches: slashes become dots. relClean must already have its surrounding
// slashes trimmed (the resolver does this), so "/test/hello" arrives as
// "test/hello" and becomes "test.hello"; a
// name already containing dots passes through unchanged since there is
// nothing to replace.
func ImplicitAction(relClean string) string {
	return strings.ReplaceAll(relClean, "/", ".")
}
