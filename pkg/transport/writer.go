package transport

import "net/http"

// ResponseWriter wraps http.ResponseWriter to record whether the response
// has started and with which status.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// Track wraps w in a ResponseWriter. If w is already tracked it is
// returned unchanged.
func Track(w http.ResponseWriter) *ResponseWriter {
	if tw, ok := w.(*ResponseWriter); ok {
		return tw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the status and delegates to the underlying writer.
func (w *ResponseWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write marks the response as started and delegates.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Flush delegates to the underlying writer if it implements http.Flusher.
func (w *ResponseWriter) Flush() {
	w.written = true
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Status returns the status written so far, 200 if none.
func (w *ResponseWriter) Status() int {
	return w.status
}

// Started reports whether headers or body have been sent.
func (w *ResponseWriter) Started() bool {
	return w.written
}

// Started reports whether the response behind w has begun. Writers that
// are not tracked anywhere in their Unwrap chain are assumed fresh.
func Started(w http.ResponseWriter) bool {
	for w != nil {
		if tw, ok := w.(*ResponseWriter); ok {
			return tw.written
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}
		w = u.Unwrap()
	}
	return false
}
