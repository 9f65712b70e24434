package manager

import (
	"context"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/codec"
)

// refresh rebuilds the view from the store: list R/members (watched), list
// R/available (watched), decode each member's payload, and stamp each node
// with available := (id ∈ availabilitySet). A missing or malformed member
// payload is logged and skipped without aborting the refresh; an id present
// in R/available but absent from R/members is discarded by construction,
// since the result is built by iterating members, not availability.
func (m *Manager) refresh() (cluster.View, map[int32]bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	defer cancel()

	memberNames, err := m.client.GetChildren(ctx, m.membersPath(), true)
	if err != nil {
		return nil, nil, &StoreError{Op: "getChildren(members)", Err: err}
	}
	availNames, err := m.client.GetChildren(ctx, m.availablePath(), true)
	if err != nil {
		return nil, nil, &StoreError{Op: "getChildren(available)", Err: err}
	}

	availSet := make(map[int32]bool, len(availNames))
	for _, name := range availNames {
		id, err := parseID(name)
		if err != nil {
			m.logger.Printf("manager: ignoring non-numeric availability entry %q: %v", name, err)
			continue
		}
		availSet[id] = true
	}

	view := make(cluster.View, len(memberNames))
	for _, name := range memberNames {
		id, err := parseID(name)
		if err != nil {
			m.logger.Printf("manager: ignoring non-numeric member entry %q: %v", name, err)
			continue
		}

		payload, err := m.client.GetData(ctx, m.memberPath(id), false)
		if err != nil {
			m.logger.Printf("manager: getData failed for member %d, skipping: %v", id, err)
			continue
		}

		node, err := codec.Decode(payload)
		if err != nil {
			m.logger.Printf("manager: malformed payload for member %d, skipping: %v", id, err)
			continue
		}

		view[id] = node.WithAvailability(availSet[id])
	}

	return view, availSet, nil
}
