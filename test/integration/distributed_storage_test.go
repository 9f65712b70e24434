package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"
)

// testSystem launches a coordinator binary and drives its admin HTTP
// surface, exercising end-to-end what internal/manager's unit tests can
// only exercise against the in-memory fake store.
type testSystem struct {
	t          *testing.T
	coord      *exec.Cmd
	coordAddr  string
	httpClient *http.Client
}

func newTestSystem(t *testing.T) *testSystem {
	return &testSystem{
		t:         t,
		coordAddr: "http://127.0.0.1:18080",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (ts *testSystem) start() error {
	if _, err := os.Stat("./bin/coordinator"); os.IsNotExist(err) {
		return fmt.Errorf("coordinator binary not found, skip building it here: %w", err)
	}

	ts.t.Log("starting coordinator...")
	ts.coord = exec.Command("./bin/coordinator")
	ts.coord.Env = append(os.Environ(), "COORDINATOR_ADDR=:18080")
	ts.coord.Stdout = os.Stdout
	ts.coord.Stderr = os.Stderr
	if err := ts.coord.Start(); err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	return ts.waitForService(ts.coordAddr + "/health")
}

func (ts *testSystem) stop() {
	if ts.coord != nil && ts.coord.Process != nil {
		ts.t.Log("stopping coordinator...")
		ts.coord.Process.Kill()
		ts.coord.Wait()
	}
}

func (ts *testSystem) waitForService(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s", url)
		default:
			resp, err := ts.httpClient.Get(url)
			if err == nil && resp.StatusCode == http.StatusOK {
				resp.Body.Close()
				return nil
			}
			if resp != nil {
				resp.Body.Close()
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func (ts *testSystem) postJSON(path string, body any) (int, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := ts.httpClient.Post(ts.coordAddr+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func (ts *testSystem) view() (viewBody, error) {
	var v viewBody
	resp, err := ts.httpClient.Get(ts.coordAddr + "/view")
	if err != nil {
		return v, err
	}
	defer resp.Body.Close()
	err = json.NewDecoder(resp.Body).Decode(&v)
	return v, err
}

type viewBody struct {
	Nodes []struct {
		ID         int32   `json:"id"`
		URL        string  `json:"url"`
		Partitions []int32 `json:"partitions"`
		Available  bool    `json:"available"`
	} `json:"nodes"`
}

// TestClusterMembershipLifecycle runs an end-to-end add/available/remove
// cycle against a real coordinator process.
func TestClusterMembershipLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := os.Stat("./bin/coordinator"); os.IsNotExist(err) {
		t.Skip("skipping integration test: coordinator binary not found (build it into ./bin first)")
	}

	ts := newTestSystem(t)
	if err := ts.start(); err != nil {
		t.Fatalf("failed to start test system: %v", err)
	}
	defer ts.stop()

	t.Run("AddNodeAppearsInView", func(t *testing.T) {
		status, err := ts.postJSON("/nodes/add", map[string]any{"id": 1, "url": "localhost:31313", "partitions": []int32{1, 2}})
		if err != nil {
			t.Fatalf("add node: %v", err)
		}
		if status != http.StatusNoContent {
			t.Fatalf("add node status = %d, want 204", status)
		}

		v, err := ts.view()
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if len(v.Nodes) != 1 || v.Nodes[0].ID != 1 || v.Nodes[0].Available {
			t.Fatalf("unexpected view after add: %+v", v.Nodes)
		}
	})

	t.Run("MarkAvailableFlipsFlag", func(t *testing.T) {
		status, err := ts.postJSON("/nodes/available", map[string]any{"id": 1})
		if err != nil {
			t.Fatalf("mark available: %v", err)
		}
		if status != http.StatusNoContent {
			t.Fatalf("mark available status = %d, want 204", status)
		}

		v, err := ts.view()
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if len(v.Nodes) != 1 || !v.Nodes[0].Available {
			t.Fatalf("expected node 1 available, got %+v", v.Nodes)
		}
	})

	t.Run("DuplicateAddIsRejected", func(t *testing.T) {
		status, err := ts.postJSON("/nodes/add", map[string]any{"id": 1, "url": "localhost:31313"})
		if err != nil {
			t.Fatalf("duplicate add: %v", err)
		}
		if status != http.StatusConflict {
			t.Fatalf("duplicate add status = %d, want 409", status)
		}
	})

	t.Run("RemoveNodeClearsView", func(t *testing.T) {
		status, err := ts.postJSON("/nodes/remove", map[string]any{"id": 1})
		if err != nil {
			t.Fatalf("remove node: %v", err)
		}
		if status != http.StatusNoContent {
			t.Fatalf("remove node status = %d, want 204", status)
		}

		v, err := ts.view()
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if len(v.Nodes) != 0 {
			t.Fatalf("expected empty view after remove, got %+v", v.Nodes)
		}
	})
}
