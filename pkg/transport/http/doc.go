// Package http hosts the blobgate HTTP server: the default middleware
// stack around a mux, listener management, and graceful shutdown.
package http
