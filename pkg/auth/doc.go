// Package auth provides the authentication and authorization checks that
// the gate runs in front of every route.
//
// A request carries at most one credential in a single header whose value
// is "<type> <value>". [ParseCredential] turns that header into a closed
// [Credential] variant: bearer token, api key, unrecognized, or absent.
//
// [Authenticator] answers "is the caller who they claim to be": bearer
// tokens are decoded (not verified; signature trust is established
// upstream) and their audience, issuer, and expiry are checked, while api
// keys are compared against a single configured key. [Authorizer] answers
// "may this caller perform this operation": bearer scopes must intersect
// the route's required scopes, and api keys are allowed only where the
// route's [Policy] says so.
//
// Both checks are pure decisions over immutable configuration and are safe
// for concurrent use. Decode failures never propagate; they degrade to a
// false result and an error-level log entry.
package auth
