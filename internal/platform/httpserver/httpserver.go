// Package httpserver builds the process's single HTTP listener.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Per-route deadlines come from the router's
// timeout tiers, so the server itself only caps the header read and idle
// keep-alives; a blanket WriteTimeout would clip document uploads.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
