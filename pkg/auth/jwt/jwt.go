// Package jwt decodes bearer tokens into auth.Claims.
//
// Decoding does not verify the token signature: only the payload segment
// is base64-decoded and parsed. The audience, issuer, and expiry checks in
// package auth decide whether the decoded claims are acceptable.
package jwt

import (
	"errors"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/blobgate/pkg/auth"
)

// ErrDecode wraps every decoding failure.
var ErrDecode = errors.New("jwt: unable to decode token")

// Config holds the decoder configuration.
type Config struct {
	// ScopesClaim is the claim holding granted scopes. Default: "scp".
	// The value can be a space-separated string or a JSON array.
	ScopesClaim string
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scp"
	}
}

// Decoder decodes bearer tokens without verifying their signature.
// It holds no mutable state and is safe for concurrent use.
type Decoder struct {
	config Config
	parser *jwtlib.Parser
}

// Ensure Decoder implements auth.ClaimsDecoder at compile time.
var _ auth.ClaimsDecoder = (*Decoder)(nil)

// New creates a decoder with the given configuration.
func New(cfg Config) *Decoder {
	cfg.applyDefaults()
	return &Decoder{
		config: cfg,
		parser: jwtlib.NewParser(),
	}
}

// Decode parses token and extracts audience, issuer, expiry, and scopes.
// The aud, iss, and exp claims are required; a missing scopes claim
// yields no scopes.
func (d *Decoder) Decode(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecode)
	}

	// Only the payload matters here. ParseUnverified has already filled
	// claims when it reports an unknown or missing alg header.
	claims := jwtlib.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil && !errors.Is(err, jwtlib.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("%w: aud: %w", ErrDecode, err)
	}
	switch len(aud) {
	case 0:
		return nil, fmt.Errorf("%w: missing aud claim", ErrDecode)
	case 1:
	default:
		return nil, fmt.Errorf("%w: aud claim has %d values, want 1", ErrDecode, len(aud))
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: iss: %w", ErrDecode, err)
	}
	if iss == "" {
		return nil, fmt.Errorf("%w: missing iss claim", ErrDecode)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %w", ErrDecode, err)
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrDecode)
	}

	scopes, err := extractScopes(claims, d.config.ScopesClaim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return &auth.Claims{
		Audience: aud[0],
		Issuer:   iss,
		Expiry:   exp.Unix(),
		Scopes:   scopes,
	}, nil
}

// extractScopes extracts scopes from JWT claims.
// The scope claim can be either a space-separated string or a JSON array.
func extractScopes(claims jwtlib.MapClaims, key string) ([]string, error) {
	val, ok := claims[key]
	if !ok || val == nil {
		return nil, nil
	}

	// Case 1: space-separated string (e.g., "read write admin")
	if s, ok := val.(string); ok {
		return strings.Fields(s), nil
	}

	// Case 2: JSON array (e.g., ["read", "write", "admin"])
	if arr, ok := val.([]interface{}); ok {
		scopes := make([]string, 0, len(arr))
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s claim contains a non-string value", key)
			}
			scopes = append(scopes, s)
		}
		return scopes, nil
	}

	return nil, fmt.Errorf("%s claim must be a string or an array of strings", key)
}
