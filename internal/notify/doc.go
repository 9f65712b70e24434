// Package notify implements the Notification Manager: a single-writer
// broadcaster that tracks subscribed listeners and the latest known
// cluster view, fanning out Connected/Disconnected/NodesChanged/Shutdown
// events to every listener in registration order.
//
// # Concurrency
//
// Manager runs its own goroutine draining a FIFO mailbox, the same
// single-consumer-serialized-agent shape internal/manager uses for the
// Cluster Manager (see that package's doc.go) — command handling never
// interleaves, and a listener is invoked on the Manager's goroutine, never
// the caller's. AddListener blocks for its reply (an ask); Publish is a
// tell and returns once the event is enqueued, not once every listener
// has seen it.
//
// # Delivery guarantees
//
// Every publish reaches every listener, in the exact order it was
// published — there is no coalescing of queued events, only of what a
// listener is shown as "current" when it first subscribes (AddListener
// replays only the latest known view, not every historical one). A
// listener whose Notify panics does not stop delivery to the remaining
// listeners; Manager recovers and logs instead.
package notify
