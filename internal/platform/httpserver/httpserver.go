package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server with conservative timeouts. Handler-level
// timeouts are enforced separately in the middleware chain.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
