package notify

import (
	"log"

	"github.com/dreamware/torua/internal/cluster"
)

// Event is the sealed set of notifications a Manager fans out.
type Event interface {
	event()
}

// Connected reports that the cluster session is live, carrying the view
// computed from the store at the moment connection was established (or
// re-established).
type Connected struct{ View cluster.View }

// Disconnected reports a transient loss of the coordination-store
// connection. It carries no view — listeners should keep using the last
// view they were shown until either a new Connected or NodesChanged
// arrives.
type Disconnected struct{}

// NodesChanged reports a refreshed view, published on every refresh while
// connected even if the view is byte-identical to the previous one —
// listeners may use it as a liveness pulse.
type NodesChanged struct{ View cluster.View }

// Shutdown is the terminal event. After it is published, Manager ignores
// all further Publish calls.
type Shutdown struct{}

func (Connected) event()    {}
func (Disconnected) event() {}
func (NodesChanged) event() {}
func (Shutdown) event()     {}

// Listener receives fanned-out events. Notify is called on the Manager's
// own goroutine and must not block — a slow listener delays delivery to
// every listener registered after it in order.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(Event)

// Notify calls f.
func (f ListenerFunc) Notify(ev Event) { f(ev) }

type listenerID uint64

type addCmd struct {
	l     Listener
	reply chan listenerID
}

type removeCmd struct {
	id listenerID
}

type publishCmd struct {
	ev Event
}

type closeCmd struct {
	done chan struct{}
}

// Manager is the Notification Manager. The zero value is not usable;
// construct with NewManager.
type Manager struct {
	mailbox chan any
	logger  *log.Logger
}

// NewManager starts a Manager's goroutine and returns it. A nil logger
// falls back to log.Default().
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		mailbox: make(chan any, 256),
		logger:  logger,
	}
	go m.run()
	return m
}

// AddListener registers l and returns its id. If a view is currently
// known (the most recent Connected or NodesChanged event's View), l is
// immediately sent a Connected carrying that view before AddListener
// returns.
func (m *Manager) AddListener(l Listener) uint64 {
	reply := make(chan listenerID, 1)
	m.mailbox <- addCmd{l: l, reply: reply}
	return uint64(<-reply)
}

// RemoveListener unregisters id. Idempotent: removing an unknown or
// already-removed id is a no-op.
func (m *Manager) RemoveListener(id uint64) {
	m.mailbox <- removeCmd{id: listenerID(id)}
}

// Publish enqueues ev for fan-out. It returns once ev is enqueued, not
// once every listener has observed it. Publishes after Shutdown has been
// published are silently ignored.
func (m *Manager) Publish(ev Event) {
	m.mailbox <- publishCmd{ev: ev}
}

// Close stops the Manager's goroutine once every previously enqueued
// command has been processed. Close does not itself publish Shutdown —
// callers that want listeners notified of a shutdown must Publish(Shutdown{})
// before calling Close.
func (m *Manager) Close() {
	done := make(chan struct{})
	m.mailbox <- closeCmd{done: done}
	<-done
}

func (m *Manager) run() {
	listeners := make(map[listenerID]Listener)
	order := make([]listenerID, 0, 8)
	var nextID listenerID
	var knownView *cluster.View
	var shutdown bool

	for msg := range m.mailbox {
		switch c := msg.(type) {
		case addCmd:
			nextID++
			id := nextID
			listeners[id] = c.l
			order = append(order, id)
			if knownView != nil {
				m.deliver(c.l, Connected{View: *knownView})
			}
			c.reply <- id

		case removeCmd:
			delete(listeners, c.id)

		case publishCmd:
			if shutdown {
				continue
			}
			switch ev := c.ev.(type) {
			case Connected:
				v := ev.View
				knownView = &v
			case NodesChanged:
				v := ev.View
				knownView = &v
			case Shutdown:
				shutdown = true
			}
			for _, id := range order {
				if l, ok := listeners[id]; ok {
					m.deliver(l, c.ev)
				}
			}

		case closeCmd:
			close(c.done)
			return
		}
	}
}

// deliver invokes l.Notify, recovering a panic so one broken listener
// cannot stop fan-out to the rest.
func (m *Manager) deliver(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("notify: listener panicked handling %T: %v", ev, r)
		}
	}()
	l.Notify(ev)
}
