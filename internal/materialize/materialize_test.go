package materialize

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/action"
)

func TestWriteText(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, nil, "req-1", action.Text("Hello Moleculer"))

	assert.Equal(t, 200, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Hello Moleculer", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get("Request-Id"))
}

func TestWriteNumber(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, nil, "req-1", action.Number(13))
	assert.Equal(t, "13", w.Body.String())
}

func TestWriteBoolean(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, nil, "req-1", action.Boolean(true))
	assert.Equal(t, "true", w.Body.String())
}

func TestWriteObjectRoundTrips(t *testing.T) {
	w := httptest.NewRecorder()
	original := map[string]any{"name": "Ben", "age": float64(30)}
	Write(w, nil, "req-1", action.Object(original))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, original["name"], decoded["name"])
	assert.Equal(t, original["age"], decoded["age"])
}

func TestWriteBufferObjectAsOctetStream(t *testing.T) {
	w := httptest.NewRecorder()
	obj := map[string]any{"type": "Buffer", "data": []any{float64(104), float64(105)}}
	Write(w, nil, "req-1", action.Object(obj))

	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "hi", w.Body.String())
}

func TestWriteBytes(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, nil, "req-1", action.Bytes([]byte("binary")))
	assert.Equal(t, "6", w.Header().Get("Content-Length"))
}

func TestWriteByteStream(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, nil, "req-1", action.ByteStream(io.NopCloser(strings.NewReader("streamed"))))
	assert.Equal(t, "streamed", w.Body.String())
}

func TestWriteNull(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, nil, "req-1", action.Null())
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 0, w.Body.Len())
}
