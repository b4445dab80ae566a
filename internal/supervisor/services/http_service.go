// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// HTTPServiceConfig configures the admin server service.
type HTTPServiceConfig struct {
	// Addr is the listen address; port 0 picks a free port.
	Addr string
	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration
}

// HTTPServerService runs the admin HTTP server under the supervisor. It
// binds on every start, so a restart after a bind failure retries the
// address.
type HTTPServerService struct {
	server HTTPServer
	cfg    HTTPServiceConfig
	logger zerolog.Logger

	mu    sync.Mutex
	bound net.Addr
}

// NewHTTPServerService wraps server.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHTTPServerService(server HTTPServer, cfg HTTPServiceConfig, logger zerolog.Logger) *HTTPServerService {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server: server,
		cfg:    cfg,
		logger: logger.With().Str("service", "admin-http-server").Logger(),
	}
}

// Serve implements suture.Service. It returns ctx.Err() after a graceful
// shutdown and a wrapped error when binding or serving fails. The serve
// context is already done when Shutdown runs, so Shutdown gets its own
// timeout.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", h.cfg.Addr)
	if err != nil {
		return fmt.Errorf("admin server failed: %w", err)
	}
	h.setAddr(l.Addr())
	defer h.setAddr(nil)
	h.logger.Info().Str("addr", l.Addr().String()).Msg("Admin server listening")

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("admin server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.cfg.ShutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin server shutdown failed: %w", err)
		}
		<-errCh
		h.logger.Info().Msg("Admin server stopped")
		return ctx.Err()
	}
}

// Addr returns the bound address while serving, or nil.
func (h *HTTPServerService) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

func (h *HTTPServerService) setAddr(a net.Addr) {
	h.mu.Lock()
	h.bound = a
	h.mu.Unlock()
}

// String names the service in supervisor logs.
func (h *HTTPServerService) String() string {
	return "admin-http-server"
}
