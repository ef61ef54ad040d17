package resolver

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/action"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/assets"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/broker"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/routetable"
)

// fakeBroker implements broker.Broker with the three actions the spec's
// end-to-end scenarios (spec.md §8) are built around.
type fakeBroker struct{}

func (fakeBroker) Invoke(ctx context.Context, name string, params map[string]any) (action.Result, error) {
	switch name {
	case "test.hello":
		return action.Text("Hello Moleculer"), nil
	case "test.greeter":
		n, _ := params["name"].(string)
		return action.Text("Hello " + n), nil
	case "math.add":
		a, _ := toFloat(params["a"])
		b, _ := toFloat(params["b"])
		return action.Number(a + b), nil
	default:
		return action.Result{}, broker.ServiceNotFound(name)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

func noAssets() *assets.Server { return assets.New("") }

func buildResolver(t *testing.T, globalPath string, routeSpecs []routetable.MountSpec, assetServer *assets.Server) *Resolver {
	t.Helper()
	if assetServer == nil {
		assetServer = noAssets()
	}
	mounts := make([]*routetable.Mount, 0, len(routeSpecs))
	for _, s := range routeSpecs {
		mounts = append(mounts, routetable.Compile(s))
	}
	return New(globalPath, mounts, fakeBroker{}, assetServer, nil)
}

func defaultParsers() routetable.ParserSettings {
	return routetable.ParserSettings{JSONEnabled: true, URLEncodedEnabled: true}
}

// Scenario 1: defaults, GET /test/hello -> 200 text/plain "Hello Moleculer".
func TestScenarioDefaultImplicitAction(t *testing.T) {
	res := buildResolver(t, "", []routetable.MountSpec{{Parsers: defaultParsers()}}, nil)

	r := httptest.NewRequest("GET", "/test/hello", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "Hello Moleculer", w.Body.String())
}

// Scenario 2: defaults, GET /other/action -> 501 ServiceNotFoundError.
func TestScenarioUnknownActionIs501(t *testing.T) {
	res := buildResolver(t, "", []routetable.MountSpec{{Parsers: defaultParsers()}}, nil)

	r := httptest.NewRequest("GET", "/other/action", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")

	assert.Equal(t, 501, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ServiceNotFoundError", body["name"])
	assert.Equal(t, "Action 'other.action' is not available!", body["message"])
}

// Scenario 3: global prefix "/my-api".
func TestScenarioGlobalPrefix(t *testing.T) {
	res := buildResolver(t, "/my-api", []routetable.MountSpec{{Parsers: defaultParsers()}}, nil)

	r := httptest.NewRequest("GET", "/test/hello", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")
	assert.Equal(t, 404, w.Code, "unprefixed request")

	r2 := httptest.NewRequest("GET", "/my-api/test/hello", nil)
	w2 := httptest.NewRecorder()
	res.ServeHTTP(w2, r2, "req-2")
	assert.Equal(t, 200, w2.Code, "prefixed request")
	assert.Equal(t, "Hello Moleculer", w2.Body.String())
}

// Scenario 4: whitelist.
func TestScenarioWhitelist(t *testing.T) {
	spec := routetable.MountSpec{
		Path:      "/api",
		Whitelist: []string{"test.hello", "math.*"},
		Parsers:   defaultParsers(),
	}
	res := buildResolver(t, "", []routetable.MountSpec{spec}, nil)

	r := httptest.NewRequest("GET", "/api/test/greeter", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")
	assert.Equal(t, 501, w.Code, "test.greeter")

	r2 := httptest.NewRequest("GET", "/api/math.add?a=5&b=8", nil)
	w2 := httptest.NewRecorder()
	res.ServeHTTP(w2, r2, "req-2")
	assert.Equal(t, 200, w2.Code, "math.add")
	assert.Equal(t, "13", w2.Body.String())
}

// Scenario 5: aliases, method-qualified and bare.
func TestScenarioAliases(t *testing.T) {
	spec := routetable.MountSpec{
		Path: "/api",
		Aliases: []routetable.AliasSpec{
			{Key: "add", Target: "math.add"},
			{Key: "GET hello", Target: "test.hello"},
			{Key: "POST hello", Target: "test.greeter"},
		},
		Parsers: defaultParsers(),
	}
	res := buildResolver(t, "", []routetable.MountSpec{spec}, nil)

	r := httptest.NewRequest("GET", "/api/hello", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")
	assert.Equal(t, "Hello Moleculer", w.Body.String(), "GET hello")

	r2 := httptest.NewRequest("POST", "/api/hello?name=Ben", nil)
	w2 := httptest.NewRecorder()
	res.ServeHTTP(w2, r2, "req-2")
	assert.Equal(t, "Hello Ben", w2.Body.String(), "POST hello")

	r3 := httptest.NewRequest("POST", "/api/add", jsonBody(`{"a":5,"b":8}`))
	r3.Header.Set("Content-Type", "application/json")
	w3 := httptest.NewRecorder()
	res.ServeHTTP(w3, r3, "req-3")
	assert.Equal(t, "13", w3.Body.String(), "POST add")
}

// Scenario 6: JSON parser only, invalid JSON body -> 400.
func TestScenarioInvalidJSONBody(t *testing.T) {
	spec := routetable.MountSpec{
		Path:    "/api",
		Parsers: routetable.ParserSettings{JSONEnabled: true},
	}
	res := buildResolver(t, "", []routetable.MountSpec{spec}, nil)

	r := httptest.NewRequest("POST", "/api/test/hello", jsonBody(`invalid`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")

	assert.Equal(t, 400, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "InvalidRequestBodyError", body["name"])
	assert.Equal(t, "Invalid request body", body["message"])
}

// Scenario 7: assets only (routes == nil), asset folder with index.html.
func TestScenarioAssetsOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hi</h1>"), 0o644))

	res := buildResolver(t, "", nil, assets.New(dir))

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")
	assert.Equal(t, 200, w.Code, "index")
	assert.Equal(t, "<h1>hi</h1>", w.Body.String())

	r2 := httptest.NewRequest("GET", "/test/hello", nil)
	w2 := httptest.NewRecorder()
	res.ServeHTTP(w2, r2, "req-2")
	assert.Equal(t, 404, w2.Code, "api path with no routes")
}

// Scenario 8: multiple routes, first mount wins for its own path prefix.
func TestScenarioMultipleRoutes(t *testing.T) {
	specs := []routetable.MountSpec{
		{Path: "/api1", Whitelist: []string{"math.*"}, Parsers: defaultParsers()},
		{Path: "/api2", Whitelist: []string{"test.*"}, Parsers: defaultParsers()},
	}
	res := buildResolver(t, "", specs, nil)

	r := httptest.NewRequest("GET", "/api2/math.add", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")
	assert.Equal(t, 501, w.Code, "api2/math.add")

	r2 := httptest.NewRequest("GET", "/api1/math.add?a=5&b=8", nil)
	w2 := httptest.NewRecorder()
	res.ServeHTTP(w2, r2, "req-2")
	assert.Equal(t, "13", w2.Body.String(), "api1/math.add")
}

// Merge invariant: body overrides query on key conflict.
func TestMergeParamsBodyWinsOverQuery(t *testing.T) {
	spec := routetable.MountSpec{Parsers: defaultParsers()}
	res := buildResolver(t, "", []routetable.MountSpec{spec}, nil)

	r := httptest.NewRequest("POST", "/test/greeter?name=A", jsonBody(`{"name":"B"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "req-1")

	assert.Equal(t, "Hello B", w.Body.String())
}

func TestRequestIDEchoedOnEveryResponse(t *testing.T) {
	res := buildResolver(t, "", []routetable.MountSpec{{Parsers: defaultParsers()}}, nil)
	r := httptest.NewRequest("GET", "/test/hello", nil)
	w := httptest.NewRecorder()
	res.ServeHTTP(w, r, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get("Request-Id"))
}
