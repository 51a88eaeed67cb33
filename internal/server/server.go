// Package server runs the gateway's HTTP listener.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server wraps an http.Server with the timeouts the gateway runs with.
type Server struct {
	inner *http.Server
}

// New returns a server for handler bound to addr.
func New(addr string, handler http.Handler) *Server {
	return &Server{inner: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Start begins serving HTTP traffic. It returns nil after Shutdown.
func (s *Server) Start() error {
	return ignoreClosed(s.inner.ListenAndServe())
}

// Serve serves on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	return ignoreClosed(s.inner.Serve(l))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
