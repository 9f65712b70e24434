package manager

import (
	"errors"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/codec"
	"github.com/dreamware/torua/internal/notify"
	"github.com/dreamware/torua/internal/store"
)

type refreshTick struct{}

type addNodeCmd struct {
	node  cluster.Node
	reply chan error
}

type removeNodeCmd struct {
	id    int32
	reply chan error
}

type markAvailableCmd struct {
	id    int32
	reply chan error
}

type markUnavailableCmd struct {
	id    int32
	reply chan error
}

type viewQuery struct {
	reply chan cluster.View
}

type sessionSeqQuery struct {
	reply chan int
}

type shutdownCmd struct {
	done chan struct{}
}

// AddNode creates a persistent R/members/<id> znode for node, replying
// ErrDuplicateNode if one already exists. On success the current view is
// updated optimistically (node's availability bit taken from the last
// observed availability set) and NodesChanged is published.
func (m *Manager) AddNode(node cluster.Node) error {
	reply := make(chan error, 1)
	select {
	case m.mailbox <- addNodeCmd{node: node, reply: reply}:
	case <-m.stopCh:
		return ErrNotConnected
	}
	return <-reply
}

// RemoveNode deletes R/members/<id>, replying success if it was already
// absent (idempotent). On success the node is removed from the current view
// and NodesChanged is published.
func (m *Manager) RemoveNode(id int32) error {
	reply := make(chan error, 1)
	select {
	case m.mailbox <- removeNodeCmd{id: id, reply: reply}:
	case <-m.stopCh:
		return ErrNotConnected
	}
	return <-reply
}

// MarkNodeAvailable creates an ephemeral R/available/<id> znode, replying
// success without creating a duplicate if one already exists. On success,
// if id is a known member, its availability bit is flipped true and
// NodesChanged is published.
func (m *Manager) MarkNodeAvailable(id int32) error {
	reply := make(chan error, 1)
	select {
	case m.mailbox <- markAvailableCmd{id: id, reply: reply}:
	case <-m.stopCh:
		return ErrNotConnected
	}
	return <-reply
}

// MarkNodeUnavailable deletes R/available/<id>, replying success if it was
// already absent. On success, if id is a known member, its availability bit
// is flipped false and NodesChanged is published.
func (m *Manager) MarkNodeUnavailable(id int32) error {
	reply := make(chan error, 1)
	select {
	case m.mailbox <- markUnavailableCmd{id: id, reply: reply}:
	case <-m.stopCh:
		return ErrNotConnected
	}
	return <-reply
}

// CurrentView returns a snapshot of the manager's current view. Once the
// manager has shut down, it returns an empty view rather than blocking.
func (m *Manager) CurrentView() cluster.View {
	reply := make(chan cluster.View, 1)
	select {
	case m.mailbox <- viewQuery{reply: reply}:
	case <-m.stopCh:
		return cluster.View{}
	}
	return <-reply
}

// SessionSeq returns the number of coordination-store sessions opened so
// far (1 after Start, incremented again on every Expired-triggered
// reconnect). Exists mainly so tests can observe session reconstruction.
// Once the manager has shut down, it returns 0 rather than blocking.
func (m *Manager) SessionSeq() int {
	reply := make(chan int, 1)
	select {
	case m.mailbox <- sessionSeqQuery{reply: reply}:
	case <-m.stopCh:
		return 0
	}
	return <-reply
}

func (m *Manager) handleAddNode(node cluster.Node) error {
	if m.state != stateConnected {
		return ErrNotConnected
	}
	p := m.memberPath(node.ID)

	ctx, cancel := newOpContext(m.opTimeout)
	defer cancel()

	exists, err := m.client.Exists(ctx, p, false)
	if err != nil {
		return &StoreError{Op: "exists(member)", Err: err}
	}
	if exists {
		return ErrDuplicateNode
	}

	if _, err := m.client.Create(ctx, p, codec.Encode(node), store.Persistent); err != nil {
		if errors.Is(err, store.ErrNodeExists) {
			return ErrDuplicateNode
		}
		return &StoreError{Op: "create(member)", Err: err}
	}

	if m.currentView == nil {
		m.currentView = cluster.View{}
	}
	m.currentView[node.ID] = node.WithAvailability(m.availability[node.ID])
	m.notifier.Publish(notify.NodesChanged{View: m.currentView.Clone()})
	return nil
}

func (m *Manager) handleRemoveNode(id int32) error {
	if m.state != stateConnected {
		return ErrNotConnected
	}
	p := m.memberPath(id)

	ctx, cancel := newOpContext(m.opTimeout)
	defer cancel()

	exists, err := m.client.Exists(ctx, p, false)
	if err != nil {
		return &StoreError{Op: "exists(member)", Err: err}
	}
	if !exists {
		return nil
	}

	if err := m.client.Delete(ctx, p, -1); err != nil {
		return &StoreError{Op: "delete(member)", Err: err}
	}

	delete(m.currentView, id)
	m.notifier.Publish(notify.NodesChanged{View: m.currentView.Clone()})
	return nil
}

func (m *Manager) handleMarkAvailable(id int32) error {
	if m.state != stateConnected {
		return ErrNotConnected
	}
	p := m.availablePathFor(id)

	ctx, cancel := newOpContext(m.opTimeout)
	defer cancel()

	exists, err := m.client.Exists(ctx, p, false)
	if err != nil {
		return &StoreError{Op: "exists(available)", Err: err}
	}
	if exists {
		return nil
	}

	if _, err := m.client.Create(ctx, p, nil, store.Ephemeral); err != nil {
		if errors.Is(err, store.ErrNodeExists) {
			return nil
		}
		return &StoreError{Op: "create(available)", Err: err}
	}

	if m.availability == nil {
		m.availability = map[int32]bool{}
	}
	m.availability[id] = true
	if n, ok := m.currentView[id]; ok {
		m.currentView[id] = n.WithAvailability(true)
	}
	m.notifier.Publish(notify.NodesChanged{View: m.currentView.Clone()})
	return nil
}

func (m *Manager) handleMarkUnavailable(id int32) error {
	if m.state != stateConnected {
		return ErrNotConnected
	}
	p := m.availablePathFor(id)

	ctx, cancel := newOpContext(m.opTimeout)
	defer cancel()

	exists, err := m.client.Exists(ctx, p, false)
	if err != nil {
		return &StoreError{Op: "exists(available)", Err: err}
	}
	if !exists {
		return nil
	}

	if err := m.client.Delete(ctx, p, -1); err != nil {
		return &StoreError{Op: "delete(available)", Err: err}
	}

	if m.availability != nil {
		delete(m.availability, id)
	}
	if n, ok := m.currentView[id]; ok {
		m.currentView[id] = n.WithAvailability(false)
	}
	m.notifier.Publish(notify.NodesChanged{View: m.currentView.Clone()})
	return nil
}
