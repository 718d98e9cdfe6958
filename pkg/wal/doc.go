/*
Package wal is the write-ahead log graphd's transaction manager appends
every mutation to before touching the mmap'd stores, and replays at
startup to redo whatever a crash lost from the page cache.

# Record format

Each record is a fixed 17-byte header followed by a JSON payload:

	[record_type: u8][lsn: u64][crc32: u32][len: u32][payload: len bytes]

fsync is not called on every Append — only Commit and Abort fsync,
matching the durability contract a transaction actually needs: once
Commit's fsync returns, every record belonging to that transaction,
including the Commit record itself, is guaranteed to survive a crash.

# Redo

Recovery is logical, not physical: pkg/txn's Redo (pkg/txn/redo.go)
switches on the Command's Op field and replays it against the record
stores, property store and adjacency store as pkg/txn's write path
originally applied it, using the entity ids captured in the payload
(via the stores' explicit-id Put methods plus Store.BumpNextID) rather
than re-allocating fresh ones. The catalog and the in-memory indexes
are not touched by redo. This is the same shape as a Raft FSM's
Apply(log) — switch on an operation name, unmarshal its JSON payload,
call the matching store method — repurposed from replicating committed
cluster state to redoing committed graph mutations after a local crash.
*/
package wal
