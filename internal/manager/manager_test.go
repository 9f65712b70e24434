package manager

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/codec"
	"github.com/dreamware/torua/internal/notify"
	"github.com/dreamware/torua/internal/store"
)

// fakeFactory hands out FakeClients backed by a shared tree, recording each
// one so tests can drive the session the manager currently holds.
type fakeFactory struct {
	mu      sync.Mutex
	tree    *store.Tree
	clients []*store.FakeClient
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{tree: store.NewTree()}
}

func (f *fakeFactory) new() store.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := store.NewFakeClient(f.tree)
	f.clients = append(f.clients, c)
	return c
}

func (f *fakeFactory) latest() *store.FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[len(f.clients)-1]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// recordingListener records every notify.Event it observes, in order.
type recordingListener struct {
	mu     sync.Mutex
	events []notify.Event
}

func (l *recordingListener) Notify(ev notify.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *recordingListener) snapshot() []notify.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]notify.Event, len(l.events))
	copy(out, l.events)
	return out
}

func mustNode(t *testing.T, id int32, url string, partitions []int32) cluster.Node {
	t.Helper()
	n, err := cluster.NewNode(id, url, partitions)
	if err != nil {
		t.Fatalf("NewNode(%d): %v", id, err)
	}
	return n
}

// newTestManager wires a Manager over a fresh fakeFactory/notifier pair and
// starts it, waiting for the first session to open.
func newTestManager(t *testing.T) (*Manager, *fakeFactory, *recordingListener) {
	t.Helper()
	factory := newFakeFactory()
	notifier := notify.NewManager(nil)
	t.Cleanup(notifier.Close)

	m := New(Config{
		Addr:     "fake:2181",
		Root:     "/torua",
		NewClient: factory.new,
		Notifier: notifier,
	})
	l := &recordingListener{}
	notifier.AddListener(l)

	m.Start()
	m.WaitReady()
	t.Cleanup(m.Shutdown)

	return m, factory, l
}

// seedMember writes an encoded node directly into the tree under
// /torua/members, bypassing the manager, to establish pre-existing state
// before a Connected event.
func seedMember(t *testing.T, tree *store.Tree, n cluster.Node) {
	t.Helper()
	if err := tree.Create("/torua", nil, false, 0); err != nil && !errors.Is(err, store.ErrNodeExists) {
		t.Fatalf("seed root: %v", err)
	}
	if err := tree.Create("/torua/members", nil, false, 0); err != nil && !errors.Is(err, store.ErrNodeExists) {
		t.Fatalf("seed members: %v", err)
	}
	if err := tree.Create("/torua/available", nil, false, 0); err != nil && !errors.Is(err, store.ErrNodeExists) {
		t.Fatalf("seed available: %v", err)
	}
	p := "/torua/members/" + itoa(n.ID)
	if err := tree.Create(p, codec.Encode(n), false, 0); err != nil {
		t.Fatalf("seed member %d: %v", n.ID, err)
	}
}

func seedAvailable(t *testing.T, tree *store.Tree, id int32) {
	t.Helper()
	p := "/torua/available/" + itoa(id)
	if err := tree.Create(p, nil, false, 0); err != nil {
		t.Fatalf("seed available %d: %v", id, err)
	}
}

func itoa(id int32) string {
	return strconv.Itoa(int(id))
}

func waitForEvents(t *testing.T, l *recordingListener, n int) []notify.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := l.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, got %d: %+v", n, len(l.snapshot()), l.snapshot())
	return nil
}
