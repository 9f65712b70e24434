package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dreamware/torua/internal/cluster"
)

const (
	fieldID         protowire.Number = 1
	fieldURL        protowire.Number = 2
	fieldPartitions protowire.Number = 3
	// fieldAvailableReserved is never written and never read. It is kept
	// here only so the field number stays reserved in case a future wire
	// compatibility audit needs to recognize it on a legacy payload.
	fieldAvailableReserved protowire.Number = 4
)

// ErrMalformedNode is returned by Decode when a payload is truncated or
// structurally invalid — an unterminated varint, a length-prefixed field
// whose declared length runs past the end of the buffer, or a missing
// required field.
var ErrMalformedNode = errors.New("codec: malformed node payload")

// Encode serializes a node's identity, url, and partitions into the
// length-delimited wire format described in doc.go. Available is never
// part of the payload — it is session-scoped state, derived separately by
// internal/manager from the coordination store's availability tree.
func Encode(n cluster.Node) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(n.ID)))

	b = protowire.AppendTag(b, fieldURL, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(n.URL))

	for _, p := range n.Partitions {
		b = protowire.AppendTag(b, fieldPartitions, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(p)))
	}

	return b
}

// Decode parses the wire format produced by Encode back into a Node.
// Decode never sets Available — the returned node always has
// Available=false regardless of what a legacy field 4 might carry,
// satisfying the invariant that availability is never read off the wire.
//
// Unknown fields (including a legacy field 4) are skipped. A truncated or
// structurally invalid buffer returns ErrMalformedNode. A payload missing
// the url field also returns ErrMalformedNode, since a Node's url must be
// non-empty (cluster.NewNode enforces the same invariant for
// caller-constructed nodes).
func Decode(payload []byte) (cluster.Node, error) {
	var (
		id         int32
		url        string
		sawURL     bool
		partitions = []int32{}
	)

	b := payload
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return cluster.Node{}, malformed(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return cluster.Node{}, malformed(protowire.ParseError(n))
			}
			id = int32(uint32(v))
			b = b[n:]

		case num == fieldURL && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return cluster.Node{}, malformed(protowire.ParseError(n))
			}
			url = string(v)
			sawURL = true
			b = b[n:]

		case num == fieldPartitions && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return cluster.Node{}, malformed(protowire.ParseError(n))
			}
			partitions = append(partitions, int32(uint32(v)))
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return cluster.Node{}, malformed(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if !sawURL {
		return cluster.Node{}, fmt.Errorf("%w: missing url field", ErrMalformedNode)
	}

	return cluster.Node{ID: id, URL: url, Partitions: partitions}, nil
}

func malformed(cause error) error {
	return fmt.Errorf("%w: %v", ErrMalformedNode, cause)
}
