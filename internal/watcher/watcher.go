package watcher

import (
	"log"

	"github.com/dreamware/torua/internal/store"
)

// Message is the sealed set of notifications the Watcher Adapter posts to
// the Cluster Manager's mailbox.
type Message interface {
	message()
}

// Connected reports that the coordination-store session is live.
type Connected struct{}

// Disconnected reports a transient loss of connection to the coordination
// store; the session itself may still be alive.
type Disconnected struct{}

// Expired reports that the coordination-store session has expired; every
// ephemeral znode it owned is gone and a new session is required.
type Expired struct{}

// NodeChildrenChanged reports that the children of Path were added to or
// removed from since the watch on Path was registered.
type NodeChildrenChanged struct {
	Path string
}

func (Connected) message()           {}
func (Disconnected) message()        {}
func (Expired) message()             {}
func (NodeChildrenChanged) message() {}

// Sink is the mailbox the adapter posts into. Post must not block; it
// reports whether the message was accepted so the adapter can log a drop
// instead of stalling the coordination-store client's delivery thread.
type Sink interface {
	Post(Message) bool
}

// Adapter is the stateless translator described in doc.go. The zero value
// is not usable; construct with New.
type Adapter struct {
	sink   Sink
	logger *log.Logger
}

// New returns an Adapter posting into sink. A nil logger falls back to
// log.Default().
func New(sink Sink, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{sink: sink, logger: logger}
}

// Handle is the translation entry point: call it with every raw event a
// store.Client delivers. Events outside the translation table (any
// State/Type combination not listed in doc.go) are dropped silently, per
// spec.
func (a *Adapter) Handle(ev store.Event) {
	msg := translate(ev)
	if msg == nil {
		return
	}
	if !a.sink.Post(msg) {
		a.logger.Printf("watcher: mailbox full, dropped %T", msg)
	}
}

// Func returns a store.WatcherFunc bound to Handle, ready to pass directly
// to store.Client.Connect.
func (a *Adapter) Func() store.WatcherFunc {
	return a.Handle
}

func translate(ev store.Event) Message {
	if ev.Type == store.EventChildrenChanged {
		return NodeChildrenChanged{Path: ev.Path}
	}
	switch ev.State {
	case store.StateSyncConnected:
		return Connected{}
	case store.StateDisconnected:
		return Disconnected{}
	case store.StateExpired:
		return Expired{}
	default:
		return nil
	}
}
