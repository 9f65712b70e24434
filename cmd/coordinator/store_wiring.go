package main

import (
	"context"
	"time"

	"github.com/dreamware/torua/internal/store"
)

// autoConnectClient wraps store.FakeClient to fire the SyncConnected event
// the moment a session opens, the way a real coordination-store driver's
// handshake would once it finishes synchronizing with the ensemble.
// store.FakeClient itself never does this on its own — its Connect doc is
// explicit that tests are expected to call SimulateConnected once they are
// ready to observe it — which suits unit tests that want to control the
// timing precisely, but a running binary has no test driving it, so this
// binary supplies the "handshake completed" trigger itself.
type autoConnectClient struct {
	*store.FakeClient
}

func newAutoConnectClient(tree *store.Tree) store.Client {
	return &autoConnectClient{FakeClient: store.NewFakeClient(tree)}
}

func (c *autoConnectClient) Connect(ctx context.Context, addr string, sessionTimeout time.Duration, watcher store.WatcherFunc) error {
	if err := c.FakeClient.Connect(ctx, addr, sessionTimeout, watcher); err != nil {
		return err
	}
	c.FakeClient.SimulateConnected()
	return nil
}
