package manager

import (
	"reflect"
	"testing"

	"github.com/dreamware/torua/internal/cluster"
)

func TestBuildPartitionIndexSkipsUnavailableNodes(t *testing.T) {
	n1 := mustNode(t, 1, "localhost:31313", []int32{1, 2}).WithAvailability(true)
	n2 := mustNode(t, 2, "localhost:31314", []int32{2, 3}).WithAvailability(false)
	n3 := mustNode(t, 3, "localhost:31315", []int32{1}).WithAvailability(true)

	view := cluster.View{n1.ID: n1, n2.ID: n2, n3.ID: n3}
	idx := BuildPartitionIndex(view)

	if got := idx.NodesForPartition(1); !reflect.DeepEqual(got, []int32{1, 3}) {
		t.Fatalf("partition 1 servers = %v, want [1 3]", got)
	}
	if got := idx.NodesForPartition(2); !reflect.DeepEqual(got, []int32{1}) {
		t.Fatalf("partition 2 servers = %v, want [1] (node 2 unavailable)", got)
	}
	if got := idx.NodesForPartition(99); got != nil {
		t.Fatalf("partition 99 servers = %v, want nil", got)
	}
}

func TestNodesForPartitionReturnsACopy(t *testing.T) {
	n1 := mustNode(t, 1, "localhost:31313", []int32{1}).WithAvailability(true)
	idx := BuildPartitionIndex(cluster.View{n1.ID: n1})

	got := idx.NodesForPartition(1)
	got[0] = 99
	if idx[1][0] == 99 {
		t.Fatal("NodesForPartition must return a copy, caller mutation leaked into the index")
	}
}
