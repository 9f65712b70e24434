// Package main implements the Torua coordinator service: the process that
// owns a Cluster Manager's coordination-store session and exposes its
// current view and mutation commands over a small HTTP admin surface.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│            Coordinator                   │
//	├─────────────────────────────────────────┤
//	│  HTTP API:                              │
//	│    /view         - Current cluster view │
//	│    /nodes/add    - Add a member          │
//	│    /nodes/remove - Remove a member       │
//	│    /nodes/available   - Mark available   │
//	│    /nodes/unavailable - Mark unavailable │
//	│    /partitions   - Partition -> nodes    │
//	│    /health       - Health check          │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    manager.Manager  - Session + state    │
//	│    notify.Manager   - Event fan-out      │
//	└─────────────────────────────────────────┘
//
// Configuration:
//   - COORDINATOR_ADDR: admin HTTP listen address (default ":8080")
//   - COORDINATOR_STORE_ADDR: coordination-store address (default "fake:2181")
//   - COORDINATOR_STORE_ROOT: cluster root znode path (default "/torua")
//   - COORDINATOR_SESSION_TIMEOUT: coordination-store session timeout (default "10s")
//   - COORDINATOR_REFRESH_INTERVAL: defensive refresh ticker period (default "0", disabled)
//   - COORDINATOR_CONFIG_FILE: optional YAML file overriding the above, see config.go
//
// Example usage:
//
//	# Start coordinator
//	COORDINATOR_ADDR=:8080 ./coordinator
//
//	# Add a member
//	curl -X POST localhost:8080/nodes/add \
//	  -d '{"id":1,"url":"localhost:31313","partitions":[1,2]}'
//
//	# Fetch the current view
//	curl localhost:8080/view
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/torua/internal/manager"
	"github.com/dreamware/torua/internal/notify"
	"github.com/dreamware/torua/internal/store"
)

func main() {
	logger, err := newZapLogger(getenv("COORDINATOR_LOG_LEVEL", "info"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	logger.Info("coordinator starting",
		zap.String("admin_addr", cfg.AdminAddr),
		zap.String("store_addr", cfg.StoreAddr),
		zap.String("store_root", cfg.StoreRoot),
		zap.Duration("session_timeout", cfg.SessionTimeout),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
	)

	srv := newServer(cfg, logger)
	srv.mgr.Start()
	srv.mgr.WaitReady()

	mux := http.NewServeMux()
	mux.HandleFunc("/view", srv.handleView)
	mux.HandleFunc("/nodes/add", srv.handleAddNode)
	mux.HandleFunc("/nodes/remove", srv.handleRemoveNode)
	mux.HandleFunc("/nodes/available", srv.handleMarkAvailable)
	mux.HandleFunc("/nodes/unavailable", srv.handleMarkUnavailable)
	mux.HandleFunc("/partitions", srv.handlePartitions)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	go func() {
		logger.Info("admin HTTP surface listening", zap.String("addr", cfg.AdminAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("http server shutdown error", zap.Error(err))
	}

	srv.mgr.Shutdown()
	logger.Info("coordinator stopped")
}

// server wires a manager.Manager and notify.Manager to the admin HTTP
// surface. It holds no state of its own beyond what those two already
// serialize internally.
type server struct {
	mgr      *manager.Manager
	notifier *notify.Manager
	logger   *zap.Logger
}

// newServer constructs the Cluster Manager and Notification Manager for a
// single coordinator process. No production coordination-store driver
// ships in this module (see DESIGN.md); the manager is wired against an
// in-memory fake tree shared across the process's own lifetime, which is
// sufficient for a standalone binary acting as its own single-node
// ensemble.
func newServer(cfg config, logger *zap.Logger) *server {
	tree := store.NewTree()
	notifier := notify.NewManager(nil)

	stdLogger := zap.NewStdLog(logger)
	mgr := manager.New(manager.Config{
		Addr:            cfg.StoreAddr,
		Root:            cfg.StoreRoot,
		SessionTimeout:  cfg.SessionTimeout,
		RefreshInterval: cfg.RefreshInterval,
		NewClient:       func() store.Client { return newAutoConnectClient(tree) },
		Notifier:        notifier,
		Logger:          stdLogger,
	})

	return &server{mgr: mgr, notifier: notifier, logger: logger}
}

// handleView returns the manager's current view as JSON, sorted by node id.
//
// Endpoint: GET /view
func (s *server) handleView(w http.ResponseWriter, _ *http.Request) {
	view := s.mgr.CurrentView()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Nodes []cnode `json:"nodes"`
	}{Nodes: toWireNodes(view.Nodes())}); err != nil {
		s.logger.Warn("failed to encode view response", zap.Error(err))
	}
}

// handlePartitions reports, for every partition currently claimed by an
// available node, the ids of the nodes serving it.
//
// Endpoint: GET /partitions
func (s *server) handlePartitions(w http.ResponseWriter, _ *http.Request) {
	idx := manager.BuildPartitionIndex(s.mgr.CurrentView())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(idx); err != nil {
		s.logger.Warn("failed to encode partitions response", zap.Error(err))
	}
}

// handleAddNode adds a member via manager.Manager.AddNode.
//
// Endpoint: POST /nodes/add
// Request body: {"id":1,"url":"host:port","partitions":[1,2]}
func (s *server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cnode
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	node, err := fromWireNode(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.mgr.AddNode(node); err != nil {
		writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveNode removes a member via manager.Manager.RemoveNode.
//
// Endpoint: POST /nodes/remove
// Request body: {"id":1}
func (s *server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID int32 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := s.mgr.RemoveNode(req.ID); err != nil {
		writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkAvailable marks a member available via
// manager.Manager.MarkNodeAvailable.
//
// Endpoint: POST /nodes/available
// Request body: {"id":1}
func (s *server) handleMarkAvailable(w http.ResponseWriter, r *http.Request) {
	s.handleAvailability(w, r, s.mgr.MarkNodeAvailable)
}

// handleMarkUnavailable marks a member unavailable via
// manager.Manager.MarkNodeUnavailable.
//
// Endpoint: POST /nodes/unavailable
// Request body: {"id":1}
func (s *server) handleMarkUnavailable(w http.ResponseWriter, r *http.Request) {
	s.handleAvailability(w, r, s.mgr.MarkNodeUnavailable)
}

func (s *server) handleAvailability(w http.ResponseWriter, r *http.Request, op func(int32) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID int32 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := op(req.ID); err != nil {
		writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeCommandError maps a manager command error to an HTTP status:
// ErrNotConnected and ErrDuplicateNode are client-correctable conflicts,
// anything else (a wrapped StoreError) is a server-side failure.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrNotConnected):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, manager.ErrDuplicateNode):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getenv retrieves an environment variable with a default fallback value.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func newZapLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	var lvl zap.AtomicLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}
