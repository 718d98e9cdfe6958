/*
Package executor interprets a pkg/planner operator pipeline against a
transaction-scoped view of the storage layer, producing a stream of
graph.Row values. Every operator is modeled as an Iterator with
pull-based Next() semantics (see pkg/planner's Operator sum type and
spec §4.7/§9): AllNodesScan and NodeByLabel seed rows from the label
index and record stores, Expand/VariableLengthPath walk the adjacency
store, Filter/Project/Distinct/Sort/Aggregate/Limit/Skip/Union shape
the stream, and Create/Delete/Set/Remove/Merge/Foreach/Unwind carry
the write-clause side effects through a txn.WriteTx.

The iterator style is grounded on the same pull-cursor pattern
pkg/cypher/lexer uses for its rune scanner (next/peek/backup),
generalized here from runes to rows.
*/
package executor
