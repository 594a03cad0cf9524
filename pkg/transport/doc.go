// Package transport provides the HTTP plumbing shared by all blobgate
// routes: the JSON error writer that reports gate and handler failures,
// and the net/http middleware chain applied in front of the mux.
//
// # Error Reporting
//
// ErrorWriter is the single sink for request failures. It derives the
// status from the error (gate failures map to 401/403/400; errors that
// implement StatusCode() int carry their own status; everything else is
// 500) and writes a body of the form {"error": "<message>"}. When the
// response has already started, it logs the error and writes nothing.
//
// # Middleware
//
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID, generated with github.com/google/uuid when absent), and
// structured request logging via log/slog. Chain composes them in order,
// outermost first. RateLimit throttles each client address with its own
// token bucket and answers 429 once the bucket is empty.
package transport
