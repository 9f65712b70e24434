package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var sessionCounter uint64

// FakeClient is an in-memory Client backed by a shared Tree, used by every
// test in this module in place of a real coordination-store driver. It
// reproduces the three behaviors internal/manager's state machine actually
// depends on: one-shot children watches, ephemeral znodes that disappear
// when their session ends, and session events delivered through the same
// WatcherFunc a real client would use.
//
// Unlike a real client, FakeClient delivers watcher events synchronously,
// on whichever goroutine triggers them (a Tree mutation from any
// FakeClient sharing the same Tree, or an explicit Simulate* call). That
// goroutine stands in for the real store's "foreign" event-delivery
// thread; internal/watcher is responsible for turning that delivery into
// a non-blocking post to the Cluster Manager's mailbox.
type FakeClient struct {
	tree *Tree

	mu        sync.Mutex
	session   uint64
	watcher   WatcherFunc
	connected bool
	closed    bool
}

// NewFakeClient returns a client bound to tree. Connect must be called
// before any other method.
func NewFakeClient(tree *Tree) *FakeClient {
	return &FakeClient{tree: tree}
}

// Connect assigns a new session id and records watcher. It does not, by
// itself, fire a SyncConnected event — call SimulateConnected (or let a
// real Client implementation's own connect handshake do the equivalent)
// once the caller is ready to observe it.
func (c *FakeClient) Connect(_ context.Context, _ string, _ time.Duration, watcher WatcherFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = atomic.AddUint64(&sessionCounter, 1)
	c.watcher = watcher
	c.connected = true
	c.closed = false
	return nil
}

// Close tears down the session, releasing every ephemeral znode it owns.
func (c *FakeClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	session := c.session
	c.mu.Unlock()

	c.tree.ExpireSession(session)
	return nil
}

func (c *FakeClient) Exists(_ context.Context, p string, _ bool) (bool, error) {
	if err := c.requireConnected(); err != nil {
		return false, err
	}
	return c.tree.Exists(p), nil
}

func (c *FakeClient) Create(_ context.Context, p string, payload []byte, mode CreateMode) (string, error) {
	if err := c.requireConnected(); err != nil {
		return "", err
	}
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if err := c.tree.Create(p, payload, mode == Ephemeral, session); err != nil {
		return "", err
	}
	return p, nil
}

func (c *FakeClient) Delete(_ context.Context, p string, _ int64) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	return c.tree.Delete(p)
}

func (c *FakeClient) GetChildren(_ context.Context, p string, watch bool) ([]string, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if !c.tree.Exists(p) {
		return nil, ErrNoNode
	}
	children := c.tree.GetChildren(p)
	if watch {
		c.armChildWatch(p)
	}
	return children, nil
}

func (c *FakeClient) GetData(_ context.Context, p string, watch bool) ([]byte, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	data, err := c.tree.GetData(p)
	if err != nil {
		return nil, err
	}
	if watch {
		c.armChildWatch(p)
	}
	return data, nil
}

func (c *FakeClient) armChildWatch(p string) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	c.tree.WatchChildren(p, session, func() {
		c.deliver(Event{State: StateSyncConnected, Type: EventChildrenChanged, Path: p})
	})
}

func (c *FakeClient) requireConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	return nil
}

func (c *FakeClient) deliver(ev Event) {
	c.mu.Lock()
	w := c.watcher
	c.mu.Unlock()
	if w != nil {
		w(ev)
	}
}

// SimulateConnected delivers a SyncConnected session event, as a real
// client's connect handshake would once the session is established.
func (c *FakeClient) SimulateConnected() {
	c.deliver(Event{State: StateSyncConnected})
}

// SimulateDisconnected delivers a transient Disconnected session event.
// Unlike Close, this does not release the session's ephemeral znodes: a
// bare disconnect is potentially recoverable without a new session.
func (c *FakeClient) SimulateDisconnected() {
	c.deliver(Event{State: StateDisconnected})
}

// SimulateExpired delivers an Expired session event. It does not itself
// release ephemeral znodes — internal/manager reacts to Expired by calling
// Close on the old client (which does release them) before opening a new
// one, exactly as a real session expiry is handled.
func (c *FakeClient) SimulateExpired() {
	c.deliver(Event{State: StateExpired})
}

// SimulateChildrenChanged delivers a children-changed event for path
// directly, bypassing the Tree's watch bookkeeping. Most tests should
// prefer mutating a shared Tree (through another FakeClient or Tree's own
// Create/Delete) so the watch fires exactly where a real watch would; this
// exists for watcher-adapter unit tests that don't need a full Tree.
func (c *FakeClient) SimulateChildrenChanged(path string) {
	c.deliver(Event{State: StateSyncConnected, Type: EventChildrenChanged, Path: path})
}
