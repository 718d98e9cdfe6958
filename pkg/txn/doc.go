/*
Package txn is the single-writer, multi-reader MVCC-by-epoch
transaction manager sitting in front of the catalog, record stores,
adjacency store, indexes and property store. A Manager owns exactly
one Stores bundle for the lifetime of an Engine.

# Epochs

Every committed write transaction advances a global epoch counter by
one. A ReadTx captures the current epoch at BeginRead and never blocks
or is blocked by a writer; closing one is a no-op release of that
claim, matching the specification's "cancellation of a read
transaction is a no-op" contract.

# Write transactions

Only one WriteTx can be open at a time (Manager.BeginWrite blocks on a
mutex until the previous writer commits or aborts), matching the
specification's single-writer model. A WriteTx applies its mutations
to the stores eagerly rather than buffering them in memory — the
stores offer no staging primitive, only Allocate/Write/MarkDeleted —
but records an undo action alongside every mutation. Abort replays
those undo actions in reverse, so once Abort returns the store files
may have grown but hold no committed references to the aborted
region. Until then its mutations are visible to concurrent readers,
as the next paragraph describes.

This is a narrower guarantee than full snapshot isolation: because
records carry no per-row version stamp, a ReadTx that begins while a
WriteTx is applying its eager mutations can observe a partially-applied
write. The specification's single-writer-lock model bounds this window
to the lifetime of one write transaction; closing it fully would need
per-record epoch stamps, out of proportion to the core's budget (see
DESIGN.md).
*/
package txn
