// Package config loads the Gateway Configuration (spec.md §3) from YAML,
// modeling the three config-shape distinctions the spec calls out
// explicitly as tagged options rather than truthy/falsy checks: a routes
// list that is absent vs explicitly null vs populated, and a bodyParsers
// block that is absent vs explicitly null vs a partial object.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasEntry is one (key, target) pair from a route's aliases block. Key is
// either a bare path ("hello") or a method-qualified path ("GET hello").
type AliasEntry struct {
	Key    string
	Target string
}

// AliasList preserves YAML mapping declaration order, which the spec
// requires for first-match-wins conflict resolution (moleculer-web's
// associative alias config relies on the same property).
type AliasList []AliasEntry

// UnmarshalYAML reads a YAML mapping node directly instead of going through
// a Go map, since map iteration order is not guaranteed.
func (a *AliasList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Tag == "!!null" {
		*a = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("config: aliases must be a mapping, got %v", node.Tag)
	}
	out := make(AliasList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key, target string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("config: alias key: %w", err)
		}
		if err := node.Content[i+1].Decode(&target); err != nil {
			return fmt.Errorf("config: alias target for %q: %w", key, err)
		}
		out = append(out, AliasEntry{Key: key, Target: target})
	}
	*a = out
	return nil
}

// ParserOption models one bodyParsers sub-option (json or urlencoded),
// which may be written as a bare bool or as an options object in the
// source config. The gateway does not interpret per-parser option fields
// beyond the enabled bit; Options is retained for forward compatibility.
type ParserOption struct {
	Enabled bool
	Options map[string]any
}

// UnmarshalYAML implements the bool-or-object tagged option.
func (p *ParserOption) UnmarshalYAML(node *yaml.Node) error {
	var asBool bool
	if err := node.Decode(&asBool); err == nil {
		p.Enabled = asBool
		p.Options = nil
		return nil
	}
	var asMap map[string]any
	if err := node.Decode(&asMap); err != nil {
		return fmt.Errorf("config: bodyParsers option must be bool or object: %w", err)
	}
	p.Enabled = true
	p.Options = asMap
	return nil
}

// BodyParsers is the per-route parser configuration. Disabled is true when
// the route explicitly set `bodyParsers: null`, which turns off all body
// decoding regardless of JSON/URLEncoded.
type BodyParsers struct {
	Disabled   bool
	JSON       ParserOption
	URLEncoded ParserOption
}

// DefaultBodyParsers is applied when a route omits the bodyParsers key
// entirely: both JSON and URL-encoded decoding enabled, matching the
// gateway's out-of-the-box behavior in the spec's default-configuration
// scenarios (spec.md §8, scenarios 1, 4, 5, 8).
func DefaultBodyParsers() BodyParsers {
	return BodyParsers{
		JSON:       ParserOption{Enabled: true},
		URLEncoded: ParserOption{Enabled: true},
	}
}

// RouteConfig is one mount's configuration (spec.md §3, Route Configuration).
type RouteConfig struct {
	Path        string
	Whitelist   []string
	Aliases     AliasList
	BodyParsers BodyParsers
}

type routeConfigRaw struct {
	Path        string    `yaml:"path"`
	Whitelist   []string  `yaml:"whitelist"`
	Aliases     AliasList `yaml:"aliases"`
	BodyParsers yaml.Node `yaml:"bodyParsers"`
}

// UnmarshalYAML distinguishes "bodyParsers absent" (apply the default) from
// "bodyParsers: null" (disable parsing) from "bodyParsers: {...}" (use the
// given sub-options, with unmentioned sub-options left disabled).
func (rc *RouteConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw routeConfigRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	rc.Path = raw.Path
	rc.Whitelist = raw.Whitelist
	rc.Aliases = raw.Aliases

	present := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "bodyParsers" {
			present = true
			break
		}
	}
	switch {
	case !present:
		rc.BodyParsers = DefaultBodyParsers()
	case raw.BodyParsers.Tag == "!!null":
		rc.BodyParsers = BodyParsers{Disabled: true}
	default:
		var bp struct {
			JSON       ParserOption `yaml:"json"`
			URLEncoded ParserOption `yaml:"urlencoded"`
		}
		if err := raw.BodyParsers.Decode(&bp); err != nil {
			return fmt.Errorf("config: bodyParsers: %w", err)
		}
		rc.BodyParsers = BodyParsers{JSON: bp.JSON, URLEncoded: bp.URLEncoded}
	}
	return nil
}

// Assets is the static-file-serving configuration.
type Assets struct {
	Folder  string
	Options map[string]any
}

// HTTPS carries the TLS key/cert material inline, matching spec.md §3
// ("https: optional { key bytes, cert bytes }").
type HTTPS struct {
	Key  []byte `yaml:"key"`
	Cert []byte `yaml:"cert"`
}

// Routes is the tri-state routes list: Present distinguishes "key existed
// in the document" from "key was absent", and Null distinguishes an
// explicit `routes: null` (mount no API routes at all) from a populated or
// empty list.
type Routes struct {
	Present bool
	Null    bool
	Value   []RouteConfig
}

// UnmarshalYAML is only invoked when the routes key is present in the
// document with a non-null value, so Present is unconditionally set to true
// here; an explicit `routes: null` is recorded by Parse instead. The zero
// value of Routes (Present == false) is what callers see for an omitted key.
func (r *Routes) UnmarshalYAML(node *yaml.Node) error {
	r.Present = true
	if node.Tag == "!!null" {
		r.Null = true
		r.Value = nil
		return nil
	}
	var value []RouteConfig
	if err := node.Decode(&value); err != nil {
		return err
	}
	r.Value = value
	return nil
}

// Gateway is the root configuration document (spec.md §3, Gateway
// Configuration / §6 "Recognized top-level keys").
type Gateway struct {
	Path   string  `yaml:"path"`
	Routes Routes  `yaml:"routes"`
	Assets *Assets `yaml:"assets"`
	HTTPS  *HTTPS  `yaml:"https"`
	Port   string  `yaml:"port"`
	IP     string  `yaml:"ip"`
}

// ResolvedRoutes returns the route set to mount: the configured list when
// routes was present and non-null, a single catch-all default route when
// routes was entirely omitted, or nil (no API routes) when routes was
// explicitly null.
func (g *Gateway) ResolvedRoutes() []RouteConfig {
	switch {
	case !g.Routes.Present:
		return []RouteConfig{{BodyParsers: DefaultBodyParsers()}}
	case g.Routes.Null:
		return nil
	default:
		return g.Routes.Value
	}
}

// Load reads and parses a Gateway Configuration document from path.
func Load(path string) (*Gateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a Gateway Configuration document from raw YAML bytes.
func Parse(data []byte) (*Gateway, error) {
	var g Gateway
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	// yaml.v3 does not call UnmarshalYAML for a null node, so an explicit
	// `routes: null` is detected here from the document tree.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode {
		top := doc.Content[0]
		for i := 0; i+1 < len(top.Content); i += 2 {
			if top.Content[i].Value == "routes" && top.Content[i+1].Tag == "!!null" {
				g.Routes = Routes{Present: true, Null: true}
			}
		}
	}
	g.Path = strings.TrimSuffix(g.Path, "/")
	return &g, nil
}
