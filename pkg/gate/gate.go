package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rhuss/blobgate/pkg/api"
	"github.com/rhuss/blobgate/pkg/auth"
	"github.com/rhuss/blobgate/pkg/observability"
	"github.com/rhuss/blobgate/pkg/schema"
	"github.com/rhuss/blobgate/pkg/transport"
)

// DefaultHeader is the request header the credential is read from.
const DefaultHeader = "Authorization"

// DefaultMaxBodySize bounds bodies read for schema validation.
const DefaultMaxBodySize int64 = 25 << 20

var (
	// ErrNilHandler is returned when wrapping a nil handler.
	ErrNilHandler = errors.New("gate: handler is nil")

	// ErrMissingCheck is returned by New when a check is not configured.
	ErrMissingCheck = errors.New("gate: authenticator and authorizer are required")
)

// Handler is a gated route handler. A returned error is passed to the
// pipeline's ErrorReporter.
type Handler func(w http.ResponseWriter, r *http.Request) error

// Policy is the per-route gate configuration.
type Policy struct {
	Auth auth.Policy

	// Schema validates the JSON request body. Nil skips body validation.
	Schema *schema.Schema
}

// ErrorReporter turns a failure into a response. It must handle the case
// where the response has already started.
type ErrorReporter interface {
	Report(w http.ResponseWriter, r *http.Request, err error)
}

// Authenticator is the authentication check.
type Authenticator interface {
	Authenticate(ctx context.Context, c auth.Credential) bool
}

// Authorizer is the authorization check.
type Authorizer interface {
	Authorize(ctx context.Context, c auth.Credential, p auth.Policy) bool
}

// Config configures a Pipeline.
type Config struct {
	Authenticator Authenticator
	Authorizer    Authorizer

	// Reporter receives every failure. Defaults to a transport.ErrorWriter.
	Reporter ErrorReporter

	// Header is the credential header name. Defaults to Authorization.
	Header string

	// MaxBodySize bounds the body read for validation. Defaults to 25 MiB.
	MaxBodySize int64

	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Reporter == nil {
		c.Reporter = transport.NewErrorWriter(c.Logger)
	}
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
}

// Pipeline composes the gate checks in front of handlers.
type Pipeline struct {
	config Config
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Authenticator == nil || cfg.Authorizer == nil {
		return nil, ErrMissingCheck
	}
	cfg.applyDefaults()
	return &Pipeline{config: cfg}, nil
}

// Wrap returns h guarded by the pipeline under pol. It fails when h is
// nil or pol declares no required scopes.
func (p *Pipeline) Wrap(h Handler, pol Policy) (http.Handler, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if err := pol.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("gate: invalid policy: %w", err)
	}

	pol.Auth.RequiredScopes = append([]string(nil), pol.Auth.RequiredScopes...)
	return &gated{pipeline: p, handler: h, policy: pol}, nil
}

// MustWrap is like Wrap but panics on error. It is meant for static
// route tables.
func (p *Pipeline) MustWrap(h Handler, pol Policy) http.Handler {
	hh, err := p.Wrap(h, pol)
	if err != nil {
		panic(err)
	}
	return hh
}

type gated struct {
	pipeline *Pipeline
	handler  Handler
	policy   Policy
}

func (g *gated) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := g.pipeline.config
	tw := transport.Track(w)
	ctx := r.Context()

	stage := StageReceived
	enter := func(next Stage) bool {
		if g.abandoned(r, next) {
			return false
		}
		stage = next
		return true
	}
	defer func() {
		if stage == StageResponded {
			cfg.Logger.LogAttrs(ctx, slog.LevelDebug, "request gated",
				slog.String("request_id", transport.RequestIDFromContext(ctx)),
				slog.String("stage", stage.String()),
				slog.Int("status", tw.Status()),
			)
		}
	}()

	cred := auth.ParseCredential(r.Header.Get(cfg.Header))

	if !enter(StageAuthenticating) {
		return
	}
	if !cfg.Authenticator.Authenticate(ctx, cred) {
		g.reject(tw, r, api.NewUnauthenticated())
		stage = StageResponded
		return
	}

	if !enter(StageAuthorizing) {
		return
	}
	if !cfg.Authorizer.Authorize(ctx, cred, g.policy.Auth) {
		g.reject(tw, r, api.NewUnauthorized())
		stage = StageResponded
		return
	}

	if g.policy.Schema != nil {
		if !enter(StageValidatingBody) {
			return
		}
		if failure := g.validateBody(tw, r); failure != nil {
			g.reject(tw, r, failure)
			stage = StageResponded
			return
		}
	}

	if !enter(StageExecuting) {
		return
	}
	r = r.WithContext(auth.SetCredential(ctx, cred))
	if err := g.execute(tw, r); err != nil {
		observability.HandlerErrorsTotal.WithLabelValues(strconv.Itoa(api.StatusFromError(err))).Inc()
		cfg.Reporter.Report(tw, r, err)
	}
	stage = StageResponded
}

// validateBody reads, decodes, and validates the body, then replays it
// for the handler.
func (g *gated) validateBody(w http.ResponseWriter, r *http.Request) *api.GateFailure {
	var data []byte
	if r.Body != nil {
		var err error
		data, err = io.ReadAll(http.MaxBytesReader(w, r.Body, g.pipeline.config.MaxBodySize))
		r.Body.Close()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return api.NewBadRequest(bodyError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			}
			return api.NewBadRequest(bodyError("unable to read request body"))
		}
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	r.ContentLength = int64(len(data))

	// An empty body validates as an empty object so that the first
	// missing required field is reported.
	var body any = map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return api.NewBadRequest(bodyError("request body is not valid JSON"))
		}
	}

	if err := schema.Validate(body, g.policy.Schema); err != nil {
		return api.NewBadRequest(err.Error())
	}
	return nil
}

func bodyError(msg string) string {
	return (&schema.ValidationError{Message: msg}).Error()
}

// execute runs the handler, converting a panic into a 500 error.
func (g *gated) execute(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		g.pipeline.config.Logger.LogAttrs(r.Context(), slog.LevelError, "handler panicked",
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("panic", fmt.Sprint(rec)),
		)
		err = api.NewServerError("internal server error", fmt.Errorf("panic: %v", rec))
	}()
	return g.handler(w, r)
}

func (g *gated) reject(w http.ResponseWriter, r *http.Request, f *api.GateFailure) {
	observability.GateRejectionsTotal.WithLabelValues(f.Kind.String()).Inc()
	g.pipeline.config.Logger.LogAttrs(r.Context(), slog.LevelDebug, "request rejected",
		slog.String("request_id", transport.RequestIDFromContext(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("reason", f.Kind.String()),
	)
	g.pipeline.config.Reporter.Report(w, r, f)
}

// abandoned reports whether the request context is done before entering
// stage s.
func (g *gated) abandoned(r *http.Request, s Stage) bool {
	err := r.Context().Err()
	if err == nil {
		return false
	}
	g.pipeline.config.Logger.LogAttrs(r.Context(), slog.LevelDebug, "request abandoned",
		slog.String("request_id", transport.RequestIDFromContext(r.Context())),
		slog.String("stage", s.String()),
		slog.String("error", err.Error()),
	)
	return true
}
