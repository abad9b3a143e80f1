// Package server hosts the score preview: a JSON catalog API, on-demand
// MusicXML conversion, and a websocket channel that tells open pages to
// reload when scanned scores change. Rendering happens entirely in the
// browser; the server never touches notation layout.
package server

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/notefall/lyrebird/core/cache"
	"github.com/notefall/lyrebird/internal/library"
	"github.com/notefall/lyrebird/internal/logging"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Config holds preview server configuration.
type Config struct {
	Addr         string        // listen address, e.g. ":8735"
	Root         string        // directory scanned for score files
	DBPath       string        // catalog database path
	ScanInterval time.Duration // how often the root is rescanned
}

// Server is the preview host.
type Server struct {
	cfg     Config
	catalog *library.Catalog
	hub     *Hub
	docs    *cache.DocumentCache
}

// New opens the catalog and prepares a server for Start.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8735"
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 5 * time.Second
	}
	catalog, err := library.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		catalog: catalog,
		hub:     NewHub(),
		docs:    cache.NewDefaultDocumentCache(),
	}, nil
}

// Start runs the initial scan, starts the rescan loop, and serves HTTP
// until the listener fails or ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()

	if _, err := s.catalog.Scan(ctx, s.cfg.Root); err != nil {
		return err
	}
	go s.watch(ctx)

	handler := logging.CombinedMiddleware(s.routes())

	port := 0
	if _, p, err := net.SplitHostPort(s.cfg.Addr); err == nil {
		port, _ = strconv.Atoi(p)
	}
	logging.ServerStartup("preview", "http", port,
		"addr", s.cfg.Addr,
		"root", absPath(s.cfg.Root),
		"db", absPath(s.cfg.DBPath),
		"scan_interval", s.cfg.ScanInterval.String())

	srv := &http.Server{Addr: s.cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close releases the catalog handle.
func (s *Server) Close() error {
	return s.catalog.Close()
}

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/scores", s.handleScores)
	mux.HandleFunc("/api/scores/", s.handleScoreDocument)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// watch rescans the root on an interval and tells connected pages to
// reload whenever the catalog changed.
func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := s.catalog.Scan(ctx, s.cfg.Root)
			if err != nil {
				logging.Error("rescan failed", "root", s.cfg.Root, "error", err)
				continue
			}
			if stats.Changed() {
				s.hub.BroadcastReload(*stats)
			}
		}
	}
}

// absPath returns the absolute path, or the original when resolution
// fails.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
