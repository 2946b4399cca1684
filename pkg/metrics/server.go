// HTTP server for the Prometheus metrics endpoint
//
// Serves /metrics for scraping and /health for liveness checks.
//
// Copyright (C) 2025 Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Server serves metrics over HTTP.
type Server struct {
	mm     *MixerMetrics
	addr   string
	server *http.Server
	mux    *http.ServeMux

	mu        sync.RWMutex
	running   bool
	startTime time.Time
}

// NewServer creates a metrics server for the given metrics set.
func NewServer(mm *MixerMetrics, addr string) *Server {
	s := &Server{
		mm:   mm,
		addr: addr,
		mux:  http.NewServeMux(),
	}
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving. Blocks until the server exits.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("metrics server already running")
	}
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	fmt.Fprint(w, s.mm.Registry().Gather())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	uptime := time.Since(s.startTime)
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","uptime_seconds":%.0f}`, uptime.Seconds())
}
