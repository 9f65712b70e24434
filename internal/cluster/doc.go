// Package cluster defines the value types shared across Torua's membership
// core: the Node record and the View snapshot built from it, plus the small
// HTTP helpers used by the admin-facing binaries in cmd/.
//
// # Overview
//
// cluster is intentionally data-only: it holds no coordination-store logic
// and no concurrency primitives. The session/watch/command machinery lives
// in internal/manager; the wire codec lives in internal/codec; the
// coordination-store contract lives in internal/store. Keeping the value
// types in their own leaf package lets internal/manager, internal/codec and
// internal/notify, plus cmd/coordinator and cmd/node, import them without a
// cyclic dependency.
//
// # Core Types
//
// Node: a single cluster member — id, url, served partitions, and whether
// it is currently accepting traffic.
//
// View: an immutable id -> Node snapshot, the unit the Cluster Manager
// hands to the Notification Manager on every state transition.
//
// # Identity
//
// Node equality and hashing both key on ID alone. Ids are unique within
// the members tree by construction (internal/manager's AddNode rejects a
// duplicate id before any equality check matters), so the only remaining
// purpose of also comparing URL would be detecting an operator mistake
// (re-adding an id under a different url), and that case is already
// surfaced as DuplicateNodeError at create time. See DESIGN.md for the
// full resolution of this design note.
package cluster
