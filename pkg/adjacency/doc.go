/*
Package adjacency is the accelerated per-node, per-type relationship
index that sits in front of the authoritative doubly-linked chains
recordstore maintains on every NodeRecord/RelRecord. Walking a node's
relationship chain is always correct but costs one record read per
relationship; adjacency answers "give me node N's outgoing KNOWS
relationships" with a single block read instead.

# Architecture

Outgoing and incoming lists live in two separate append-only files —
adjacency.outgoing.store and adjacency.incoming.store — each with the
same block layout:

	┌─────────────────── ADJACENCY FILE (one direction) ──────────────┐
	│ [header: 16 bytes: write_cursor uint64, reserved uint64]         │
	│                                                                   │
	│ [block]  header{node_id, type_id, entry_count}                   │
	│          entries [rel_id]*entry_count                           │
	│ [block]  ...                                                      │
	└───────────────────────────────────────────────────────────────┘

A block is immutable once written; rebuilding a node's list for a given
(type, direction) appends a brand new block, in that direction's file,
and repoints the in-memory offset index at it. The old block is simply
never referenced again — consistent with the rest of the storage
layer's no-online-compaction design. Each file's offset index
(map[key]blockOffset) is rebuilt by a single forward scan of that file
at Open, so it never needs to be persisted. Store bundles the two files
behind one API; every exported method takes a Direction and routes to
the matching file, so callers never need to know two files are
involved.

This structure is a cache, not a second source of truth: every block
can be regenerated from recordstore's chains, and cmd/graphd-reindex
does so offline with RebuildNode. pkg/engine's Open does not compare
the adjacency files with the chains and does not rebuild them; a
missing file is recreated empty, and its blocks stay absent until
cmd/graphd-reindex is run or new writes add them.
*/
package adjacency
