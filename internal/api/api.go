// Package api provides the HTTP server and route wiring for caseflow.
//
// It exposes the case proxy, the stock check adapter and the flow endpoints,
// and owns construction of the snapshot store, the upstream clients and the
// flow manager at startup.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sesamtech/caseflow/internal/caseapi"
	"github.com/sesamtech/caseflow/internal/flow"
	"github.com/sesamtech/caseflow/internal/soap"
	"github.com/sesamtech/caseflow/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server hosts the caseflow HTTP API.
type Server struct {
	cases flow.CaseFetcher
	stock flow.StockChecker
	flows *flow.Manager
	addr  string
}

// NewServer creates a Server over the given collaborators. stock may be nil
// when the SOAP adapter is unconfigured; the stock endpoint then serves the
// degraded unavailable body.
func NewServer(cases flow.CaseFetcher, stock flow.StockChecker, flows *flow.Manager, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = os.Getenv("API_ADDR")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{cases: cases, stock: stock, flows: flows, addr: cfg.Addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.healthHandler)
	mux.HandleFunc("GET /api/case/{guid}", s.caseHandler)
	mux.HandleFunc("POST /api/stock/check", s.stockHandler)
	mux.HandleFunc("POST /api/flow/{guid}/bootstrap", s.flowBootstrapHandler)
	mux.HandleFunc("GET /api/flow/{guid}", s.flowStateHandler)
	mux.HandleFunc("POST /api/flow/{guid}/action", s.flowActionHandler)
	mux.HandleFunc("GET /api/flow/{guid}/stock", s.flowStockHandler)
	return mux
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Server.Start: caseflow API listening", "addr", s.addr)
	return srv.ListenAndServe()
}

// Run wires up the whole service from option sets and starts the server:
// snapshot store (driver chosen from the DSN shape), upstream case client,
// SOAP stock client, flow manager, routes.
func Run(caseOpts []caseapi.Option, soapOpts []soap.Option, storeOpts []store.Option, flowOpts []flow.Option, apiOpts []Option) error {
	snapshots, err := openSnapshotStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer snapshots.Close()

	cases, err := caseapi.NewClient(caseOpts...)
	if err != nil {
		return fmt.Errorf("failed to create case API client: %w", err)
	}

	var stock flow.StockChecker
	stockClient, err := soap.NewClient(soapOpts...)
	if err != nil {
		// The service still runs without the stock adapter; the swap
		// option simply reads as unavailable.
		slog.Warn("api.Run: stock lookup not configured, swap availability degrades to unavailable", "error", err)
	} else {
		stock = stockClient
	}

	flows := flow.NewManager(cases, snapshots, stock, flowOpts...)
	server := NewServer(cases, stock, flows, apiOpts...)
	return server.Start()
}

// openSnapshotStore picks the backend from the DSN: Postgres for URL or
// key=value DSNs, in-memory when no DSN is set, SQLite file otherwise.
func openSnapshotStore(storeOpts []store.Option) (store.SnapshotStore, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		slog.Warn("api.Run: no database DSN configured, snapshots are in-memory only")
		return store.NewInMemoryStore(), nil
	case strings.HasPrefix(cfg.DSN, "postgres://") || strings.Contains(cfg.DSN, "host="):
		slog.Info("api.Run: using Postgres snapshot store")
		return store.NewPostgresStore(storeOpts...)
	default:
		slog.Info("api.Run: using SQLite snapshot store", "path", cfg.DSN)
		return store.NewSQLiteStore(storeOpts...)
	}
}
