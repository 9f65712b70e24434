package store

import (
	"context"
	"errors"
	"time"
)

// CreateMode selects the lifetime of a znode created via Client.Create.
type CreateMode int

const (
	// Persistent znodes survive the session that created them. Used for
	// R, R/members, and every R/members/<id> entry.
	Persistent CreateMode = iota
	// Ephemeral znodes are removed by the coordination store the moment
	// the owning session ends, whether by graceful close or expiry. Used
	// for R/available/<id> entries.
	Ephemeral
)

func (m CreateMode) String() string {
	if m == Ephemeral {
		return "ephemeral"
	}
	return "persistent"
}

// SessionState is the connection state of a Client's session, as reported
// by the coordination store's watcher mechanism.
type SessionState int

const (
	// StateUnknown is the zero value; never reported by a real watcher.
	StateUnknown SessionState = iota
	// StateSyncConnected means the session is live and synchronized with
	// the ensemble.
	StateSyncConnected
	// StateDisconnected means the session's connection dropped but the
	// session itself may still be alive on the server side; a watch set
	// before the disconnect is not guaranteed to fire once reconnected.
	StateDisconnected
	// StateExpired means the session itself is gone. Every ephemeral
	// znode it owned has been removed by the store, and a brand new
	// session is required.
	StateExpired
)

// EventType distinguishes a tree-change notification from a bare session
// event.
type EventType int

const (
	// EventNone accompanies a pure session-state notification.
	EventNone EventType = iota
	// EventChildrenChanged means the children of Event.Path were added to
	// or removed from since the watch was registered.
	EventChildrenChanged
)

// Event is what a Client's watcher callback receives: either a session
// transition (State set, Type == EventNone) or a one-shot tree-change
// notification (Type == EventChildrenChanged, Path set to the watched
// parent).
type Event struct {
	State SessionState
	Type  EventType
	Path  string
}

// WatcherFunc is the callback a Client invokes for every raw session or
// tree event. It is called from the Client's own delivery goroutine
// ("a foreign thread" in spec language) and must not block — see
// internal/watcher, which is the only thing a Client's caller should ever
// register directly as a WatcherFunc.
type WatcherFunc func(Event)

// Sentinel errors returned by Client implementations. A real ensemble
// client wraps its own transport errors; callers that need to distinguish
// "the znode already exists" from "the network is down" check these with
// errors.Is.
var (
	ErrNoNode       = errors.New("store: no such znode")
	ErrNodeExists   = errors.New("store: znode already exists")
	ErrNoParent     = errors.New("store: parent znode does not exist")
	ErrNotConnected = errors.New("store: client is not connected")
)

// Client is the coordination-store contract internal/manager programs
// against: connect, exists, create, delete, getChildren, getData, close,
// each taking a context for cancellation.
//
// Implementations must deliver watcher events in the order they occur and
// must not invoke the WatcherFunc re-entrantly from within a Client method
// call made by the same goroutine that will receive the event.
type Client interface {
	// Connect opens a session against addr, registering watcher to
	// receive every subsequent session and tree event. sessionTimeout is
	// advisory — how long the store should wait before declaring the
	// session expired after losing contact.
	Connect(ctx context.Context, addr string, sessionTimeout time.Duration, watcher WatcherFunc) error

	// Exists reports whether path currently has a znode. If watch is
	// true, a one-shot children-changed watch is armed on path's parent
	// the same way GetChildren does — callers in this module only ever
	// pass watch=false here; watches are armed exclusively through
	// GetChildren, which re-arms on every call.
	Exists(ctx context.Context, path string, watch bool) (bool, error)

	// Create makes path with the given payload and lifetime mode. Returns
	// ErrNodeExists if path is already present, ErrNoParent if path's
	// parent does not exist.
	Create(ctx context.Context, path string, payload []byte, mode CreateMode) (string, error)

	// Delete removes path. version is advisory (-1 means "any version",
	// the only value this module ever passes). Returns ErrNoNode if path
	// is absent.
	Delete(ctx context.Context, path string, version int64) error

	// GetChildren lists the direct children of path (by name, not full
	// path) and, if watch is true, arms a one-shot watch that fires
	// exactly once the next time a child is added to or removed from
	// path.
	GetChildren(ctx context.Context, path string, watch bool) ([]string, error)

	// GetData returns path's payload and, if watch is true, arms a
	// one-shot watch on path's own data (unused by this module's refresh
	// logic, which only ever watches children, but kept in the contract
	// for completeness with a real coordination-store API).
	GetData(ctx context.Context, path string, watch bool) ([]byte, error)

	// Close tears down the session. Any ephemeral znode owned by this
	// session is removed as part of Close, exactly as it would be on
	// expiry.
	Close() error
}
