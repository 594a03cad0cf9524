package auth

import (
	"context"
	"strings"
)

// CredentialKind tags the variant held by a Credential.
type CredentialKind int

const (
	// CredentialAbsent means no usable credential was presented.
	CredentialAbsent CredentialKind = iota

	// CredentialBearer holds an opaque bearer token.
	CredentialBearer

	// CredentialAPIKey holds a static api key.
	CredentialAPIKey

	// CredentialUnrecognized holds a value under a type tag we do not
	// handle. It never authenticates.
	CredentialUnrecognized
)

// String returns the lower-case type tag for the kind.
func (k CredentialKind) String() string {
	switch k {
	case CredentialBearer:
		return "bearer"
	case CredentialAPIKey:
		return "apikey"
	case CredentialUnrecognized:
		return "unrecognized"
	default:
		return "absent"
	}
}

// Credential is the parsed type+value pair from the credential header.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// Absent is the zero Credential.
var Absent = Credential{Kind: CredentialAbsent}

// ParseCredential parses a header value of the form "<type> <value>".
// Fields are separated by one or more whitespace characters and the type
// tag is matched case-insensitively. A value with fewer than two fields
// parses to Absent; fields beyond the second are ignored.
func ParseCredential(header string) Credential {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return Absent
	}

	switch strings.ToLower(fields[0]) {
	case "bearer":
		return Credential{Kind: CredentialBearer, Value: fields[1]}
	case "apikey":
		return Credential{Kind: CredentialAPIKey, Value: fields[1]}
	default:
		return Credential{Kind: CredentialUnrecognized, Value: fields[1]}
	}
}

// credentialKey is a private type for the credential context key.
type credentialKey struct{}

// SetCredential stores the request's credential in the context once the
// gate has accepted it.
func SetCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

// CredentialFromContext returns the credential accepted by the gate, or
// Absent when the request did not pass through a gate.
func CredentialFromContext(ctx context.Context) Credential {
	if c, ok := ctx.Value(credentialKey{}).(Credential); ok {
		return c
	}
	return Absent
}
