package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/blobgate/pkg/api"
)

// PublicMessage returns the message sent to clients for err. Gate
// failures and api.Error values expose their own message without the
// wrapped cause.
func PublicMessage(err error) string {
	var gf *api.GateFailure
	if errors.As(err, &gf) {
		return gf.Detail
	}
	var ae *api.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

// WriteErrorResponse writes a JSON error body with the given status.
func WriteErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}

// ErrorWriter reports request failures as JSON error responses.
type ErrorWriter struct {
	Logger *slog.Logger
}

// NewErrorWriter creates an ErrorWriter. A nil logger uses slog.Default().
func NewErrorWriter(logger *slog.Logger) *ErrorWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorWriter{Logger: logger}
}

// Report writes err to w. If the response has already started, it only
// logs.
func (e *ErrorWriter) Report(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status := api.StatusFromError(err)
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}

	attrs := []slog.Attr{
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}

	if Started(w) {
		e.logger().LogAttrs(ctx, slog.LevelError, "response already started, dropping error", attrs...)
		return
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	e.logger().LogAttrs(ctx, level, "request failed", attrs...)

	WriteErrorResponse(w, status, PublicMessage(err))
}

func (e *ErrorWriter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
