// Package render delegates plotting to an external service.
//
// Renderer is the single outward call the web endpoints make. HTTPRenderer
// implements it against a plotting service that accepts the six selection
// fields as query parameters and answers with a PNG. Cached wraps any
// Renderer with the TTL image store.
//
// Failures the user can fix surface as *Error wrapping ErrNoData or
// ErrInvalidQuery; everything else is an opaque error.
package render
