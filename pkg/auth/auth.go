package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rhuss/blobgate/pkg/observability"
)

// Claims are the fields decoded from a bearer token's payload.
type Claims struct {
	Audience string
	Issuer   string
	// Expiry is the token expiry in unix seconds.
	Expiry int64
	Scopes []string
}

// ClaimsDecoder turns a bearer token into claims without verifying it.
// Implementations must not panic on malformed input.
type ClaimsDecoder interface {
	Decode(token string) (*Claims, error)
}

// KeyMatcher reports whether a presented api key is the configured one.
type KeyMatcher interface {
	Match(value string) bool
}

// Config is the process-wide configuration consumed by both checks.
// It is read once at construction and never mutated.
type Config struct {
	// Audience is the expected aud claim of bearer tokens.
	Audience string

	// Issuer is the expected iss claim of bearer tokens.
	Issuer string

	// Decoder decodes bearer tokens. Required.
	Decoder ClaimsDecoder

	// APIKey matches api-key credentials. Nil disables api-key
	// authentication.
	APIKey KeyMatcher

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Logger receives decode diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks that the configuration can authenticate anything.
func (c *Config) Validate() error {
	var errs []error
	if c.Decoder == nil {
		errs = append(errs, errors.New("auth: decoder is required"))
	}
	if c.Audience == "" {
		errs = append(errs, errors.New("auth: audience is required"))
	}
	if c.Issuer == "" {
		errs = append(errs, errors.New("auth: issuer is required"))
	}
	return errors.Join(errs...)
}

// ErrNoRequiredScopes is returned when a route policy declares no scopes.
var ErrNoRequiredScopes = errors.New("auth: policy must declare at least one required scope")

// Policy is the route-declared authorization configuration.
type Policy struct {
	// RequiredScopes lists scopes of which a bearer token must hold at
	// least one.
	RequiredScopes []string

	// AllowAPIKeyAccess permits api-key credentials on the route.
	AllowAPIKeyAccess bool
}

// Validate rejects policies that cannot be evaluated unambiguously.
// It is called at route registration time.
func (p Policy) Validate() error {
	if len(p.RequiredScopes) == 0 {
		return ErrNoRequiredScopes
	}
	for i, s := range p.RequiredScopes {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("auth: required scope %d is blank", i)
		}
	}
	return nil
}

// Authenticator validates a credential's type, audience, issuer, and
// expiry (bearer) or its equality with the configured key (api key).
type Authenticator struct {
	config Config
}

// NewAuthenticator creates an authenticator. The configuration should have
// passed Validate; a nil decoder makes every bearer credential fail.
func NewAuthenticator(cfg Config) *Authenticator {
	cfg.applyDefaults()
	return &Authenticator{config: cfg}
}

// Authenticate reports whether the credential proves the caller's identity.
func (a *Authenticator) Authenticate(ctx context.Context, c Credential) bool {
	switch c.Kind {
	case CredentialBearer:
		claims, ok := decode(ctx, a.config, c.Value)
		if !ok {
			return false
		}
		return claims.Audience == a.config.Audience &&
			claims.Issuer == a.config.Issuer &&
			claims.Expiry > a.config.Now().Unix()

	case CredentialAPIKey:
		return a.config.APIKey != nil && a.config.APIKey.Match(c.Value)

	default:
		return false
	}
}

// Authorizer checks a credential against a route policy. It decodes bearer
// tokens itself and shares no state with the Authenticator.
type Authorizer struct {
	config Config
}

// NewAuthorizer creates an authorizer.
func NewAuthorizer(cfg Config) *Authorizer {
	cfg.applyDefaults()
	return &Authorizer{config: cfg}
}

// Authorize reports whether the credential may access a route with the
// given policy.
func (a *Authorizer) Authorize(ctx context.Context, c Credential, p Policy) bool {
	switch c.Kind {
	case CredentialBearer:
		claims, ok := decode(ctx, a.config, c.Value)
		if !ok {
			return false
		}
		return intersects(claims.Scopes, p.RequiredScopes)

	case CredentialAPIKey:
		return p.AllowAPIKeyAccess

	default:
		return false
	}
}

// decode runs the configured decoder, logging and counting failures.
func decode(ctx context.Context, cfg Config, token string) (*Claims, bool) {
	if cfg.Decoder == nil {
		return nil, false
	}
	claims, err := cfg.Decoder.Decode(token)
	if err != nil || claims == nil {
		if err == nil {
			err = errors.New("decoder returned no claims")
		}
		observability.TokenDecodeFailuresTotal.Inc()
		cfg.Logger.LogAttrs(ctx, slog.LevelError, "Unable to verify token",
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return claims, true
}

// intersects reports whether granted and required share an element.
func intersects(granted, required []string) bool {
	if len(granted) == 0 || len(required) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		set[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
