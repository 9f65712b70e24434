// Package watcher implements the Watcher Adapter: the translation layer
// between a coordination-store client's raw, asynchronous session and
// tree-change callbacks and the small, typed message set the Cluster
// Manager actually reacts to.
//
// # Translation table
//
//	raw store.Event                                posted Message
//	State == SyncConnected                         Connected{}
//	State == Disconnected                          Disconnected{}
//	State == Expired                               Expired{}
//	Type  == EventChildrenChanged                  NodeChildrenChanged{Path}
//	anything else                                  dropped silently
//
// The adapter holds no state of its own beyond a sink and a logger — two
// adapters fed the same event produce the same message, and nothing about
// handling one event depends on any event handled before it. Posting to
// the sink never blocks: Sink.Post reports whether the mailbox accepted
// the message, and a full mailbox is logged and dropped rather than
// risking a stall on the coordination-store client's own delivery thread.
// This is safe because every watch this module arms is re-armed on the
// next refresh, so a dropped notification is recovered the next time the
// corresponding watch fires (or, worst case, the next periodic refresh —
// see internal/manager's refresh ticker).
package watcher
