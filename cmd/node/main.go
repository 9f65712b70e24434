// Package main implements the Torua node client: a thin process that
// registers itself as a cluster member, marks its own ephemeral
// availability entry, polls the coordinator's view, and withdraws
// availability on shutdown.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                 Node                     │
//	├─────────────────────────────────────────┤
//	│  on start:  POST /nodes/add              │
//	│             POST /nodes/available        │
//	│  loop:      GET  /view   (every interval)│
//	│  on signal: POST /nodes/unavailable      │
//	└─────────────────────────────────────────┘
//
// This client owns its own availability, matching the model where a node's
// own process is responsible for its ephemeral entry rather than the
// coordinator inferring liveness through a separate health-check protocol.
//
// Configuration:
//   - NODE_ID: unique integer node identifier (required)
//   - NODE_URL: address other processes use to reach this node (required)
//   - NODE_PARTITIONS: comma-separated partition ids this node serves (optional)
//   - COORDINATOR_ADDR: base URL of the coordinator's admin HTTP surface (required)
//   - NODE_POLL_INTERVAL: view-poll period (default "5s")
//
// Example usage:
//
//	NODE_ID=1 \
//	NODE_URL=localhost:31313 \
//	NODE_PARTITIONS=1,2 \
//	COORDINATOR_ADDR=http://localhost:8080 \
//	./node
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dreamware/torua/internal/cluster"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	id := mustGetenvInt("NODE_ID")
	url := mustGetenv("NODE_URL")
	coord := mustGetenv("COORDINATOR_ADDR")
	partitions := parsePartitions(getenv("NODE_PARTITIONS", ""))
	pollInterval := mustParseDuration(getenv("NODE_POLL_INTERVAL", "5s"))

	ctx := context.Background()

	if err := addSelf(ctx, coord, id, url, partitions); err != nil {
		logFatal("failed to add self to cluster: %v", err)
	}
	if err := markAvailable(ctx, coord, id); err != nil {
		logFatal("failed to mark self available: %v", err)
	}
	log.Printf("node[%d] registered and available @ %s (coordinator %s)", id, url, coord)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

pollLoop:
	for {
		select {
		case <-ticker.C:
			view, err := fetchView(ctx, coord)
			if err != nil {
				log.Printf("node[%d] view poll failed: %v", id, err)
				continue
			}
			log.Printf("node[%d] view: %d members", id, len(view.Nodes))
		case <-stop:
			break pollLoop
		}
	}

	log.Printf("node[%d] shutting down", id)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := markUnavailable(shutdownCtx, coord, id); err != nil {
		log.Printf("node[%d] failed to mark unavailable: %v", id, err)
	}
	log.Printf("node[%d] stopped", id)
}

// viewResponse mirrors cmd/coordinator's /view JSON shape.
type viewResponse struct {
	Nodes []struct {
		ID         int32   `json:"id"`
		URL        string  `json:"url"`
		Partitions []int32 `json:"partitions"`
		Available  bool    `json:"available"`
	} `json:"nodes"`
}

func addSelf(ctx context.Context, coord string, id int32, url string, partitions []int32) error {
	body := struct {
		ID         int32   `json:"id"`
		URL        string  `json:"url"`
		Partitions []int32 `json:"partitions"`
	}{ID: id, URL: url, Partitions: partitions}
	return cluster.PostJSON(ctx, coord+"/nodes/add", body, nil)
}

func markAvailable(ctx context.Context, coord string, id int32) error {
	return cluster.PostJSON(ctx, coord+"/nodes/available", idBody{ID: id}, nil)
}

func markUnavailable(ctx context.Context, coord string, id int32) error {
	return cluster.PostJSON(ctx, coord+"/nodes/unavailable", idBody{ID: id}, nil)
}

func fetchView(ctx context.Context, coord string) (viewResponse, error) {
	var v viewResponse
	err := cluster.GetJSON(ctx, coord+"/view", &v)
	return v, err
}

type idBody struct {
	ID int32 `json:"id"`
}

func parsePartitions(raw string) []int32 {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			logFatal("invalid NODE_PARTITIONS entry %q: %v", p, err)
			continue
		}
		out = append(out, int32(n))
	}
	return out
}

// getenv retrieves an environment variable with a default fallback value.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// mustGetenv retrieves a required environment variable, terminating the
// program if it's not set.
func mustGetenv(k string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	logFatal("missing env %s", k)
	return ""
}

// mustGetenvInt retrieves a required integer environment variable.
func mustGetenvInt(k string) int32 {
	v := mustGetenv(k)
	n, err := strconv.Atoi(v)
	if err != nil {
		logFatal("env %s must be an integer: %v", k, err)
		return 0
	}
	return int32(n)
}

func mustParseDuration(v string) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		logFatal("invalid duration %q: %v", v, err)
		return 0
	}
	return d
}
