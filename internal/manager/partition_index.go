package manager

import "github.com/dreamware/torua/internal/cluster"

// PartitionIndex maps a partition id to the ids of the available nodes
// currently claiming to serve it, in node-id order.
//
// This is a read-only projection of a View: PartitionIndex decides
// nothing — it only reports what the view, built from the coordination
// store, already says. Deciding which partitions a node should host is out
// of scope here; this type exists so a subscriber can answer "who serves
// partition P right now" without re-deriving it from View.Nodes() on every
// lookup.
type PartitionIndex map[int32][]int32

// BuildPartitionIndex derives a PartitionIndex from view. Only available
// nodes are indexed — an unavailable node's listed partitions are not
// considered served.
func BuildPartitionIndex(view cluster.View) PartitionIndex {
	idx := make(PartitionIndex)
	for _, n := range view.Nodes() {
		if !n.Available {
			continue
		}
		for _, p := range n.Partitions {
			idx[p] = append(idx[p], n.ID)
		}
	}
	return idx
}

// NodesForPartition returns a copy of the ids of nodes currently serving p,
// or nil if none are.
func (idx PartitionIndex) NodesForPartition(p int32) []int32 {
	nodes, ok := idx[p]
	if !ok {
		return nil
	}
	out := make([]int32, len(nodes))
	copy(out, nodes)
	return out
}
