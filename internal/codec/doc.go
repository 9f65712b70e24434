// Package codec implements the bidirectional mapping between a cluster.Node
// and the compact byte string stored as the payload of a membership entry
// under R/members in the coordination store.
//
// # Wire format
//
// The payload is a length-delimited record built from the same tag/length
// framing protobuf uses, consumed with
// google.golang.org/protobuf/encoding/protowire rather than a generated
// message type — there is no .proto file, just three hand-placed fields:
//
//	field 1 (varint):        node id, stored as the raw bits of a uint32
//	field 2 (length-prefixed): UTF-8 url
//	field 3 (varint, repeated): partition ids, one field entry per partition
//
// Field 4 is reserved for a legacy "available" bit carried by some
// historical encoders. It is never written by Encode and, if present, is
// skipped like any other unknown field by Decode — availability is always
// derived from the coordination store's availability tree, never from the
// wire (see internal/manager).
//
// Unknown trailing fields are ignored on decode so that a newer encoder's
// payload remains readable by an older decoder. A truncated or
// structurally invalid buffer yields ErrMalformedNode.
package codec
