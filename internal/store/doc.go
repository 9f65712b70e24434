// Package store defines the contract internal/manager uses to talk to the
// coordination store — the external, highly-available hierarchical
// key/value service with watches, sessions, and ephemeral nodes that backs
// cluster membership (spec-level: ZooKeeper and workalikes).
//
// # Scope
//
// The production coordination-store client (the thing that actually opens
// a TCP session to a real ensemble) is explicitly out of scope for this
// module — it is an external collaborator, specified only at the Client
// interface below. This package therefore ships no network client, only:
//
//   - Client, the interface internal/manager programs against
//   - CreateMode and the watcher event shapes the interface uses
//   - Tree and FakeClient, an in-memory implementation used by every test
//     in this module (internal/manager's tests in particular) to drive
//     realistic session/membership scenarios without a real ensemble
//
// A Client implementation is supplied to internal/manager through
// manager.Config.NewClient (a factory function, not a package-level
// global — see DESIGN.md's note on global store-client factories).
// cmd/coordinator always passes a factory for an in-memory FakeClient; it
// has no setting that selects another implementation.
package store
