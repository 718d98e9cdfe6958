/*
Package propstore is the variable-length property heap backing every
node and relationship's properties. It is a single append-only,
pointer-addressed blob file, memory-mapped in full and grown
geometrically as it fills.

# Architecture

	┌────────────────────── PROPERTY STORE FILE ──────────────────────┐
	│  [header: 16 bytes]                                              │
	│    write_cursor   uint64   next free byte offset                 │
	│    orphaned_bytes uint64   bytes freed by Free, never reclaimed  │
	│                                                                    │
	│  [record @ offset 16]   [4-byte LE length][encoded PropertyValue]│
	│  [record @ offset N  ]   ...                                     │
	│  [record @ offset M  ]   ...  <- write_cursor                    │
	└────────────────────────────────────────────────────────────────────┘

A pointer is simply the byte offset a record starts at; offset 0 is
reserved (graph.NoPropPtr) to mean "this entity carries no properties"
and is never a valid record start, since the header itself occupies
bytes [0,16).

Deleting a property blob does not reclaim its bytes: the specification
treats property-store compaction as out of scope, so Free only bumps
orphaned_bytes and leaves the bytes in place. Nothing in graphd
reclaims that space: cmd/graphd-reindex rebuilds only the adjacency
store, and the orphaned total is reported through OrphanedBytes.

The file grows by remapping: when an append would overflow the current
mapping, the file is unmapped, truncated to a larger size (geometric
growth, see Options), and remapped. Growth happens under the store's
write lock so no reader ever observes a torn file.
*/
package propstore
