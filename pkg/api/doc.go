// Package api defines the wire types shared by the blobgate gate and its
// routes.
//
// The package performs no I/O. It holds the error taxonomy produced by the
// gate ([GateFailure]), the status-carrying error returned by route handlers
// ([Error]), the JSON error envelope written to clients ([ErrorResponse]),
// and the file payload exchanged by the file routes ([File]).
package api
