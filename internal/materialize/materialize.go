// Package materialize converts a polymorphic action.Result into bytes,
// status, and headers on an http.ResponseWriter (spec.md §4.2).
package materialize

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/action"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/logging"
)

// Write materializes res onto w, echoing requestID in the Request-Id
// header as required for every response (spec.md §4.2). log is used only
// for the streaming-error-after-headers-flushed case, where the spec
// requires logging without altering the response.
func Write(w http.ResponseWriter, log *logging.Logger, requestID string, res action.Result) {
	w.Header().Set("Request-Id", requestID)

	switch res.Kind {
	case action.KindNull:
		w.WriteHeader(http.StatusOK)

	case action.KindOpaque:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

	case action.KindText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, res.Text)

	case action.KindNumber:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, strconv.FormatFloat(res.Number, 'f', -1, 64))

	case action.KindBoolean:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if res.Bool {
			_, _ = io.WriteString(w, "true")
		} else {
			_, _ = io.WriteString(w, "false")
		}

	case action.KindBytes:
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Bytes)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Bytes)

	case action.KindByteStream:
		writeStream(w, log, res)

	case action.KindObject:
		writeObject(w, res.Object)

	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	}
}

// writeObject handles the StructuredObject row of the materialization
// table (spec.md §4.2): a {"type":"Buffer","data":[...]} shape is decoded
// to bytes and served as application/octet-stream, everything else is
// encoded as canonical JSON.
func writeObject(w http.ResponseWriter, obj any) {
	if data, ok := bufferBytes(obj); ok {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(obj)
}

// bufferBytes recognizes the Node.js Buffer JSON shape
// {"type":"Buffer","data":[n, n, ...]} that a broker may emit for binary
// results, and the same shape with "data" carried as a base64-encoded
// string, which is decoded here.
func bufferBytes(obj any) ([]byte, bool) {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, false
	}
	if t, _ := m["type"].(string); t != "Buffer" {
		return nil, false
	}
	switch data := m["data"].(type) {
	case []any:
		out := make([]byte, len(data))
		for i, v := range data {
			n, ok := v.(float64)
			if !ok {
				return nil, false
			}
			out[i] = byte(n)
		}
		return out, true
	case string:
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, false
		}
		return decoded, true
	default:
		return nil, false
	}
}

// writeStream copies res.Stream to w in chunks, relying on Go's chunked
// transfer encoding for an unknown-length body. An error partway through
// is logged and the response aborted with http.ErrAbortHandler, which
// closes the connection without touching the already-flushed status (spec.md §4.2, §9 open question resolved as
// "log and close").
func writeStream(w http.ResponseWriter, log *logging.Logger, res action.Result) {
	defer res.Stream.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := res.Stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				if log != nil {
					log.Error(werr, "stream write failed after headers flushed")
				}
				panic(http.ErrAbortHandler)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			if log != nil {
				log.Error(err, "stream read failed after headers flushed")
			}
			panic(http.ErrAbortHandler)
		}
	}
}
