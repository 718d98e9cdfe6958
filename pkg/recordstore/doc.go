/*
Package recordstore implements the fixed-stride, memory-mapped record
files backing nodes and relationships: every record occupies the same
number of bytes, so a record's id is also its byte offset divided by
the stride, and lookup is O(1) pointer arithmetic with no index.

# Architecture

	┌───────────────────── RECORD FILE ─────────────────────┐
	│ [header: 16 bytes: next_id uint64, reserved uint64]     │
	│ [record 0][record 1][record 2] ... [record next_id-1]   │
	│   each record is `stride` bytes, self-describing via a  │
	│   leading flags byte (in-use / deleted)                 │
	└───────────────────────────────────────────────────────────┘

Ids are dense and monotonically assigned by a generic Store; they are
never recycled after a delete, only tombstoned in place (flags byte)
and tracked in an in-memory roaring.Bitmap of deleted ids so
consistency checks and db.stats() can report live vs. tombstoned counts
without scanning every record. This mirrors graph.NodeId/graph.RelId's
documented "deleted slot is tombstoned, not recycled" contract.

NodeStore and RelationshipStore lay a typed record shape (label ids,
adjacency chain pointers, property-store pointer) on top of Store using
a fixed-width binary encoding; they never reinterpret raw bytes outside
their own encode/decode pair.
*/
package recordstore
