// Package manager implements the Cluster Manager: the state machine that
// owns the coordination-store session, reconciles the authoritative cluster
// view from the store, handles mutation commands, and drives a
// notify.Manager with Connected/Disconnected/NodesChanged/Shutdown events.
//
// # State machine
//
// Four states: Disconnected0 (initial), Connected, Disconnected1, Shutdown.
// A watcher.Connected event verifies (creating if absent) the cluster root
// and its members/available children, runs a refresh, and publishes
// Connected(view); failure during either step leaves the manager in
// Disconnected1 rather than advancing. A watcher.Disconnected event from
// Connected publishes Disconnected and moves to Disconnected1; the same
// event from either disconnected state is absorbed without a duplicate
// publish. A watcher.Expired event closes the current store handle
// (releasing its ephemeral znodes), discards the current view, opens a
// fresh session against the same address and watcher, and waits in
// Disconnected1 for the next Connected. Shutdown closes the handle,
// publishes notify.Shutdown, and stops the run loop; every exported
// method sends through a select against the mailbox and the close of
// stopCh, so a command issued after Shutdown returns ErrNotConnected (a
// zero value for the two queries) instead of blocking forever.
//
// # Concurrency
//
// Manager is a single-consumer serialized agent over a buffered mailbox,
// grounded on Torua's internal/coordinator package (context-cancellable
// background goroutine, sync.RWMutex-guarded authoritative state) and the
// corpus's actor mailbox idiom (tell for watcher events and the periodic
// refresh tick, ask-with-reply-channel for mutation commands and state
// queries). All of Manager's mutable fields — state, the store client,
// currentView, availability — are touched only inside the run loop
// goroutine; nothing outside it reads or writes them directly.
//
// Manager implements watcher.Sink: its Post method enqueues into the
// mailbox via a non-blocking select, matching the adapter's contract that
// posting must never block the coordination-store client's own delivery
// thread.
//
// # Periodic refresh
//
// A ticker adapted from internal/coordinator's health-monitor goroutine
// posts a defensive refresh tick at RefreshInterval, as a fallback against
// a watch notification lost to a mailbox drop (see internal/watcher's
// doc.go); watch-triggered refresh alone is sufficient for correctness, so
// this ticker may be disabled by leaving RefreshInterval at zero.
package manager
