package store

import (
	"path"
	"sort"
	"strings"
	"sync"
)

// Tree is an in-memory hierarchical key/value store that backs FakeClient,
// modeling the one part of a real coordination-store ensemble this module
// actually needs to exercise: persistent and ephemeral znodes, parent/child
// listing, and one-shot children-changed watches.
//
// Tree reworks a flat mutex-guarded map-of-bytes store into a path
// hierarchy: same mutex-guarded map and copy-on-read discipline, but keyed
// by slash-separated path with parent/child structure and per-session
// ephemeral ownership instead of a flat string->bytes store.
//
// A single Tree can be shared by multiple FakeClients to simulate several
// processes (coordinator and nodes) observing the same ensemble.
type Tree struct {
	mu      sync.Mutex
	entries map[string]treeEntry
	watches map[string][]childWatch
}

type treeEntry struct {
	payload   []byte
	ephemeral bool
	owner     uint64 // session id that created this znode; 0 for persistent
}

type childWatch struct {
	session uint64
	fire    func()
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		entries: make(map[string]treeEntry),
		watches: make(map[string][]childWatch),
	}
}

// Exists reports whether path has a znode.
func (t *Tree) Exists(p string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[p]
	return ok
}

// Create adds path with the given payload and lifetime. owner is the
// creating session's id; it is recorded even for persistent znodes (so
// RemoveNode-style ownership auditing is possible) but only consulted by
// ExpireSession for ephemeral entries.
func (t *Tree) Create(p string, payload []byte, ephemeral bool, owner uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[p]; ok {
		return ErrNodeExists
	}
	if parent := parentOf(p); parent != "" {
		if _, ok := t.entries[parent]; !ok {
			return ErrNoParent
		}
	}

	stored := make([]byte, len(payload))
	copy(stored, payload)
	t.entries[p] = treeEntry{payload: stored, ephemeral: ephemeral, owner: owner}

	t.notifyChildrenChangedLocked(parentOf(p))
	return nil
}

// Delete removes path.
func (t *Tree) Delete(p string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[p]; !ok {
		return ErrNoNode
	}
	delete(t.entries, p)
	t.notifyChildrenChangedLocked(parentOf(p))
	return nil
}

// GetData returns a copy of path's payload.
func (t *Tree) GetData(p string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[p]
	if !ok {
		return nil, ErrNoNode
	}
	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, nil
}

// GetChildren returns the sorted direct child names of path.
func (t *Tree) GetChildren(p string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.childrenLocked(p)
}

func (t *Tree) childrenLocked(p string) []string {
	prefix := p + "/"
	var children []string
	for entry := range t.entries {
		if !strings.HasPrefix(entry, prefix) {
			continue
		}
		rest := entry[len(prefix):]
		if strings.Contains(rest, "/") {
			continue // grandchild, not a direct child
		}
		children = append(children, rest)
	}
	sort.Strings(children)
	return children
}

// WatchChildren arms a one-shot watch on path: the next time a child of
// path is created or removed, fire is invoked exactly once and the watch
// is discarded, matching the real store's at-most-once watch contract.
func (t *Tree) WatchChildren(p string, session uint64, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watches[p] = append(t.watches[p], childWatch{session: session, fire: fire})
}

// notifyChildrenChangedLocked fires and clears every watch registered on
// parent. Must be called with t.mu held.
func (t *Tree) notifyChildrenChangedLocked(parent string) {
	watches := t.watches[parent]
	if len(watches) == 0 {
		return
	}
	delete(t.watches, parent)
	for _, w := range watches {
		w.fire()
	}
}

// ExpireSession removes every ephemeral znode owned by session, as a real
// ensemble would on session expiry, and fires the children-changed watches
// of every affected parent.
func (t *Tree) ExpireSession(session uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	affectedParents := make(map[string]struct{})
	for p, e := range t.entries {
		if e.ephemeral && e.owner == session {
			delete(t.entries, p)
			affectedParents[parentOf(p)] = struct{}{}
		}
	}
	for parent := range affectedParents {
		t.notifyChildrenChangedLocked(parent)
	}
}

func parentOf(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
