// Package action defines the polymorphic value returned by a broker
// invocation, and the small set of shapes the gateway knows how to
// materialize into an HTTP response.
package action

import "io"

// Kind discriminates the concrete shape carried by a Result.
type Kind int

const (
	// KindNull is an explicit null/void result.
	KindNull Kind = iota
	// KindOpaque is a value with no natural HTTP serialization (e.g. a
	// callable or symbol sentinel on the broker side). Treated as an
	// empty JSON response.
	KindOpaque
	// KindText is a UTF-8 string.
	KindText
	// KindNumber is a numeric scalar.
	KindNumber
	// KindBoolean is a boolean scalar.
	KindBoolean
	// KindBytes is an in-memory byte buffer with a known length.
	KindBytes
	// KindByteStream is a lazily-produced byte stream, read until EOF.
	KindByteStream
	// KindObject is an arbitrary JSON-serializable structure. A special
	// case — {"type":"Buffer","data":[...]} — is detected at
	// materialization time and treated as a byte buffer.
	KindObject
)

// Result is the tagged variant the Broker Client Adapter returns for a
// successful invocation. Exactly one of the payload fields is meaningful,
// selected by Kind.
type Result struct {
	Kind   Kind
	Text   string
	Number float64
	Bool   bool
	Bytes  []byte
	Stream io.ReadCloser
	Object any
}

// Null constructs a KindNull result.
func Null() Result { return Result{Kind: KindNull} }

// Opaque constructs a KindOpaque result.
func Opaque() Result { return Result{Kind: KindOpaque} }

// Text constructs a KindText result.
func Text(s string) Result { return Result{Kind: KindText, Text: s} }

// Number constructs a KindNumber result.
func Number(n float64) Result { return Result{Kind: KindNumber, Number: n} }

// Boolean constructs a KindBoolean result.
func Boolean(b bool) Result { return Result{Kind: KindBoolean, Bool: b} }

// Bytes constructs a KindBytes result.
func Bytes(b []byte) Result { return Result{Kind: KindBytes, Bytes: b} }

// ByteStream constructs a KindByteStream result. The caller retains no
// reference to r after this call; the materializer closes it.
func ByteStream(r io.ReadCloser) Result { return Result{Kind: KindByteStream, Stream: r} }

// Object constructs a KindObject result from any JSON-marshalable value.
func Object(v any) Result { return Result{Kind: KindObject, Object: v} }
