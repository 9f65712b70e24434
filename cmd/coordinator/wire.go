package main

import (
	"github.com/dreamware/torua/internal/cluster"
)

// cnode is the JSON representation of a cluster.Node on the admin HTTP
// surface. It mirrors cluster.Node's wire-relevant fields; Available is
// included on read (handleView) but ignored on write (handleAddNode) since
// availability is only ever set via /nodes/available and /nodes/unavailable.
type cnode struct {
	ID         int32   `json:"id"`
	URL        string  `json:"url"`
	Partitions []int32 `json:"partitions"`
	Available  bool    `json:"available"`
}

func toWireNodes(nodes []cluster.Node) []cnode {
	out := make([]cnode, len(nodes))
	for i, n := range nodes {
		out[i] = cnode{ID: n.ID, URL: n.URL, Partitions: n.Partitions, Available: n.Available}
	}
	return out
}

func fromWireNode(w cnode) (cluster.Node, error) {
	return cluster.NewNode(w.ID, w.URL, w.Partitions)
}
