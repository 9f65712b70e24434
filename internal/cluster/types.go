// Package cluster defines Torua's membership value types and admin HTTP helpers.
// See doc.go for complete package documentation.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slices"
)

// Node represents a single member of the cluster as reconciled from the
// coordination store: its identity, where it can be reached, the
// partitions it serves, and whether it is currently accepting traffic.
//
// Identity is ID alone — see doc.go's "Identity" section for why URL is
// not part of the equality/hash key despite both appearing in the wire
// record (internal/codec encodes both).
//
// Node is immutable once constructed; a Node is never mutated in place,
// it is always replaced by a new value as part of a new View snapshot.
type Node struct {
	// ID is the cluster-unique identifier of the node. It is also the
	// decimal name of the node's znode under R/members and R/available.
	ID int32 `json:"id"`

	// URL is the address other processes use to reach this node. Must be
	// non-empty; construction with an empty URL fails (see NewNode).
	URL string `json:"url"`

	// Partitions is the ordered set of partition ids this node currently
	// serves. May be empty. Duplicates are tolerated by the codec but
	// carry no extra meaning — partitions is semantically a set.
	Partitions []int32 `json:"partitions"`

	// Available reports whether the node currently has a live entry
	// under R/available. It is derived at refresh time, never carried on
	// the wire, and does not participate in Node equality.
	Available bool `json:"available"`
}

// ErrEmptyURL is returned by NewNode when constructing a Node without a URL.
var ErrEmptyURL = fmt.Errorf("cluster: node url must not be empty")

// NewNode constructs a Node from caller-supplied fields, failing immediately
// if url is empty. partitions may be nil; it is normalized to an empty,
// non-nil slice. The returned Node always has Available=false — availability
// is set later by whoever reconciles it against R/available.
func NewNode(id int32, url string, partitions []int32) (Node, error) {
	if url == "" {
		return Node{}, ErrEmptyURL
	}
	if partitions == nil {
		partitions = []int32{}
	}
	sorted := slices.Clone(partitions)
	slices.Sort(sorted)
	return Node{ID: id, URL: url, Partitions: sorted}, nil
}

// WithAvailability returns a copy of n with Available set to the given
// value. Used by internal/manager to stamp a decoded or optimistically
// updated Node with the current availability bit without mutating n.
func (n Node) WithAvailability(available bool) Node {
	n.Available = available
	return n
}

// Equal reports whether two nodes share the same identity. Per the
// identity resolution in doc.go, this compares ID only; URL, Partitions,
// and Available are not part of a Node's identity.
func (n Node) Equal(other Node) bool {
	return n.ID == other.ID
}

// View is an immutable snapshot of cluster membership: every known node,
// keyed by id, with its availability bit populated from the last
// reconciliation. Callers must treat a View as read-only — internal/manager
// hands out a freshly built map on every refresh rather than mutating a
// shared one in place.
type View map[int32]Node

// Nodes returns the view's nodes as a slice sorted by id, which is the
// order cmd/coordinator's /view endpoint uses so that repeated queries
// against an unchanged view print identically.
func (v View) Nodes() []Node {
	nodes := make([]Node, 0, len(v))
	for _, n := range v {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b Node) int { return int(a.ID) - int(b.ID) })
	return nodes
}

// Clone returns a shallow copy of the view. Since Node is a value type with
// no shared mutable state (Partitions is never mutated after construction),
// a shallow copy of the map is sufficient to give the caller an
// independent snapshot.
func (v View) Clone() View {
	out := make(View, len(v))
	for id, n := range v {
		out[id] = n
	}
	return out
}

// httpClient is the shared HTTP client used for all admin-surface
// communication between cmd/node and cmd/coordinator. It's configured with
// a 5-second timeout to prevent hanging on an unresponsive coordinator and
// to enable quick failure detection.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON sends a JSON-encoded POST request to the specified URL and
// decodes the JSON response into the provided output structure. It is the
// transport used by cmd/node to issue mutation commands (AddNode,
// MarkNodeAvailable, ...) against cmd/coordinator's admin HTTP surface.
func PostJSON(ctx context.Context, url string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON sends a GET request to the specified URL and decodes the JSON
// response into the provided output structure. Used by cmd/node to poll
// cmd/coordinator's /view endpoint.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
