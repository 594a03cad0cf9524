// Package gate wraps route handlers with the request-gating pipeline:
// authentication, then authorization, then body schema validation, and
// only then the handler itself.
//
// A request moves through the stages in a fixed order and never
// backtracks:
//
//	Received -> Authenticating -> Authorizing -> ValidatingBody -> Executing -> Responded
//
// The first failing stage short-circuits to the ErrorReporter with an
// *api.GateFailure (401, 403, or 400); later stages are not evaluated.
// Errors returned by the handler, and panics raised by it, reach the
// same reporter unchanged. Every failure is reported exactly once.
//
// A Pipeline holds only configuration fixed at construction and is safe
// for concurrent use. All per-request values live on the request's own
// goroutine.
package gate
