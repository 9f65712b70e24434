package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"
)

// TestGetenv tests the getenv utility function.
func TestGetenv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      string
		expected string
	}{
		{"environment variable set", "TEST_NODE_ENV_VAR", "test_value", "default", "test_value"},
		{"environment variable not set", "UNSET_NODE_ENV_VAR", "", "default_value", "default_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
				defer os.Unsetenv(tt.key)
			}
			if got := getenv(tt.key, tt.def); got != tt.expected {
				t.Errorf("getenv(%q, %q) = %q, want %q", tt.key, tt.def, got, tt.expected)
			}
		})
	}
}

// TestMustGetenv verifies mustGetenv returns the set value and calls
// logFatal (mocked) when the variable is unset.
func TestMustGetenv(t *testing.T) {
	os.Setenv("TEST_NODE_MUST_VAR", "present")
	defer os.Unsetenv("TEST_NODE_MUST_VAR")
	if got := mustGetenv("TEST_NODE_MUST_VAR"); got != "present" {
		t.Errorf("mustGetenv = %q, want present", got)
	}

	orig := logFatal
	var called bool
	var mu sync.Mutex
	logFatal = func(format string, args ...any) {
		mu.Lock()
		called = true
		mu.Unlock()
	}
	defer func() { logFatal = orig }()

	mustGetenv("TEST_NODE_MISSING_VAR")
	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("expected logFatal to be called for missing env var")
	}
}

// TestMustGetenvInt verifies integer parsing and the logFatal path for a
// non-numeric value.
func TestMustGetenvInt(t *testing.T) {
	os.Setenv("TEST_NODE_ID_VAR", "42")
	defer os.Unsetenv("TEST_NODE_ID_VAR")
	if got := mustGetenvInt("TEST_NODE_ID_VAR"); got != 42 {
		t.Errorf("mustGetenvInt = %d, want 42", got)
	}

	orig := logFatal
	var called bool
	var mu sync.Mutex
	logFatal = func(format string, args ...any) {
		mu.Lock()
		called = true
		mu.Unlock()
	}
	defer func() { logFatal = orig }()

	os.Setenv("TEST_NODE_ID_BAD", "not-a-number")
	defer os.Unsetenv("TEST_NODE_ID_BAD")
	mustGetenvInt("TEST_NODE_ID_BAD")
	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("expected logFatal to be called for non-numeric NODE_ID")
	}
}

// TestParsePartitions verifies comma-separated partition parsing, including
// the empty-string and whitespace cases.
func TestParsePartitions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int32
	}{
		{"empty", "", nil},
		{"single", "1", []int32{1}},
		{"multiple", "1,2,3", []int32{1, 2, 3}},
		{"whitespace", " 1 , 2 ", []int32{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePartitions(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parsePartitions(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parsePartitions(%q)[%d] = %d, want %d", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestMustParseDuration verifies valid durations parse and an invalid one
// triggers logFatal rather than panicking.
func TestMustParseDuration(t *testing.T) {
	if got := mustParseDuration("5s"); got != 5*time.Second {
		t.Errorf("mustParseDuration(5s) = %v, want 5s", got)
	}

	orig := logFatal
	var called bool
	var mu sync.Mutex
	logFatal = func(format string, args ...any) {
		mu.Lock()
		called = true
		mu.Unlock()
	}
	defer func() { logFatal = orig }()

	mustParseDuration("not-a-duration")
	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("expected logFatal to be called for malformed duration")
	}
}

// TestAddSelfMarkAvailableUnavailable exercises the three coordinator-facing
// HTTP calls against a stub admin server, verifying request shape.
func TestAddSelfMarkAvailableUnavailable(t *testing.T) {
	var mu sync.Mutex
	var gotPaths []string
	var gotBodies []map[string]any

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPaths = append(gotPaths, r.URL.Path)
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotBodies = append(gotBodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer stub.Close()

	ctx := context.Background()
	if err := addSelf(ctx, stub.URL, 1, "localhost:31313", []int32{1, 2}); err != nil {
		t.Fatalf("addSelf: %v", err)
	}
	if err := markAvailable(ctx, stub.URL, 1); err != nil {
		t.Fatalf("markAvailable: %v", err)
	}
	if err := markUnavailable(ctx, stub.URL, 1); err != nil {
		t.Fatalf("markUnavailable: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	wantPaths := []string{"/nodes/add", "/nodes/available", "/nodes/unavailable"}
	if len(gotPaths) != len(wantPaths) {
		t.Fatalf("got %d requests, want %d", len(gotPaths), len(wantPaths))
	}
	for i, want := range wantPaths {
		if gotPaths[i] != want {
			t.Errorf("request %d path = %q, want %q", i, gotPaths[i], want)
		}
	}
	if id, ok := gotBodies[0]["id"].(float64); !ok || int32(id) != 1 {
		t.Errorf("addSelf body id = %v, want 1", gotBodies[0]["id"])
	}
}

// TestFetchView verifies fetchView decodes the coordinator's /view shape.
func TestFetchView(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"nodes":[{"id":1,"url":"localhost:1","partitions":[1],"available":true}]}`))
	}))
	defer stub.Close()

	view, err := fetchView(context.Background(), stub.URL)
	if err != nil {
		t.Fatalf("fetchView: %v", err)
	}
	if len(view.Nodes) != 1 || view.Nodes[0].ID != 1 || !view.Nodes[0].Available {
		t.Fatalf("unexpected view: %+v", view)
	}
}
